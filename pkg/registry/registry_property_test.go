package registry_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/registry"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any handler list and any window, Match returns the lowest-index handler
// whose matcher accepts the window, and nothing when none does.
func TestRegistry_FirstMatchProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	titles := []string{"Login", "Warning", "Exit", "Tip of the Day", "Configuration"}

	properties.Property("first accepting handler wins", prop.ForAll(
		func(prefixes []int, shown int) bool {
			r := registry.New()
			for i, p := range prefixes {
				err := r.Register(registry.Handler{
					Name:   fmt.Sprintf("h%d", i),
					Match:  registry.Matcher{TitlePrefix: titles[p][:1+i%len(titles[p])]},
					Action: noop,
				})
				if err != nil {
					return false
				}
			}

			w := domain.WindowSnapshot{Title: titles[shown]}
			want := -1
			for i, h := range r.Handlers() {
				if h.Match.Matches(w) {
					want = i
					break
				}
			}

			got, ok := r.Match(w)
			if want < 0 {
				return !ok
			}
			return ok && got.Name == fmt.Sprintf("h%d", want)
		},
		gen.SliceOf(gen.IntRange(0, len(titles)-1)),
		gen.IntRange(0, len(titles)-1),
	))

	properties.TestingRun(t)
}
