package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// filterFlags collects the repository filter flags shared by the
// search, plan and harvest commands. Each command registers its own
// instance so flag state never leaks between commands.
type filterFlags struct {
	languages   []string
	minStars    int
	maxStars    int
	minForks    int
	maxForks    int
	createdFrom string
	createdTo   string
}

func (ff *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&ff.languages, "language", "l", nil, "primary language (repeatable)")
	fs.IntVar(&ff.minStars, "min-stars", 0, "minimum stargazer count")
	fs.IntVar(&ff.maxStars, "max-stars", 0, "maximum stargazer count")
	fs.IntVar(&ff.minForks, "min-forks", 0, "minimum fork count")
	fs.IntVar(&ff.maxForks, "max-forks", 0, "maximum fork count")
	fs.StringVar(&ff.createdFrom, "created-from", "", "creation window start, inclusive (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&ff.createdTo, "created-to", "", "creation window end, exclusive (RFC3339 or YYYY-MM-DD)")
}

// build turns the parsed flags into a domain filter. fs is consulted
// for which bounds were actually given, so a zero minimum is a real
// bound rather than an unset one.
func (ff *filterFlags) build(fs *pflag.FlagSet) (domain.Filter, error) {
	var f domain.Filter
	f.Languages = ff.languages

	stars, err := rangeFromFlags(fs, "min-stars", "max-stars", ff.minStars, ff.maxStars)
	if err != nil {
		return domain.Filter{}, err
	}
	f.Stars = stars

	forks, err := rangeFromFlags(fs, "min-forks", "max-forks", ff.minForks, ff.maxForks)
	if err != nil {
		return domain.Filter{}, err
	}
	f.Forks = forks

	if ff.createdFrom != "" {
		from, err := parseTimeFlag(ff.createdFrom)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("--created-from: %w", err)
		}
		f.Created.Min = &from
	}
	if ff.createdTo != "" {
		to, err := parseTimeFlag(ff.createdTo)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("--created-to: %w", err)
		}
		f.Created.Max = &to
	}

	return f, nil
}

// rangeFromFlags builds an integer range from a min/max flag pair,
// treating untouched flags as open bounds.
func rangeFromFlags(fs *pflag.FlagSet, minName, maxName string, min, max int) (domain.IntRange, error) {
	hasMin := fs.Changed(minName)
	hasMax := fs.Changed(maxName)

	switch {
	case hasMin && hasMax:
		if min > max {
			return domain.IntRange{}, fmt.Errorf("--%s (%d) exceeds --%s (%d)", minName, min, maxName, max)
		}
		return domain.Between(min, max), nil
	case hasMin:
		return domain.AtLeast(min), nil
	case hasMax:
		return domain.AtMost(max), nil
	default:
		return domain.IntRange{}, nil
	}
}

// parseTimeFlag accepts RFC3339 timestamps or bare dates, which read as
// midnight UTC.
func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339 or YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}
