package warden_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/schedule"
	"github.com/jonboulle/clockwork"
)

// ExampleController_Execute sends a STATUS command to a controller that has
// not launched its host yet.
func ExampleController_Execute() {
	ctrl, err := warden.New(memory.NewHost())
	if err != nil {
		log.Fatal(err)
	}

	reply, err := ctrl.Execute(context.Background(), domain.Command{Verb: domain.VerbStatus})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply)
	// Output: phase=starting mode=api authenticated=false
}

// ExampleWithSchedule shows how time specifications resolve against the
// controller's clock.
func ExampleWithSchedule() {
	// Friday evening.
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 8, 21, 0, 0, 0, time.UTC))
	settings, err := schedule.ParseSettings("22:00", "Sunday 07:00", "", "")
	if err != nil {
		log.Fatal(err)
	}

	ctrl, err := warden.New(memory.NewHost(),
		warden.WithClock(clock),
		warden.WithLocation(time.UTC),
		warden.WithSchedule(settings),
	)
	if err != nil {
		log.Fatal(err)
	}

	status, err := ctrl.Status(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	for _, t := range status.Plan {
		fmt.Println(t.Kind, t.FireAt.Format(time.RFC3339))
	}
	// Output:
	// shutdown 2024-03-08T22:00:00Z
	// cold_restart 2024-03-10T07:00:00Z
}
