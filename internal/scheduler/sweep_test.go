package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inmova_backend/internal/email"
	"inmova_backend/internal/events"
	"inmova_backend/internal/onboarding/progress"
	"inmova_backend/internal/onboarding/service"
	"inmova_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeFinder struct {
	companies []service.StalledCompany
	err       error
}

func (f fakeFinder) StalledCompanies(context.Context) ([]service.StalledCompany, error) {
	return f.companies, f.err
}

type recordingSender struct {
	mu       sync.Mutex
	sent     map[string]email.OnboardingReminder
	failFor  string
	disabled bool
}

func (s *recordingSender) Enabled() bool { return !s.disabled }

func (s *recordingSender) SendOnboardingReminder(_ context.Context, to string, reminder email.OnboardingReminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if to == s.failFor {
		return errors.New("550 mailbox unavailable")
	}
	if s.sent == nil {
		s.sent = map[string]email.OnboardingReminder{}
	}
	s.sent[to] = reminder
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func stalledCompany(mail string, done ...progress.StepID) service.StalledCompany {
	return service.StalledCompany{
		ID:              uuid.New(),
		Nombre:          "Empresa " + mail,
		Email:           mail,
		ProgressPercent: len(done) * 100 / progress.TotalSteps(),
		StepsCompleted:  done,
		LastActivityAt:  time.Now().Add(-10 * 24 * time.Hour),
	}
}

func TestSweepSendsOncePerWindow(t *testing.T) {
	mr, client := newRedis(t)
	sender := &recordingSender{}
	bus := &recordingBus{}
	companies := []service.StalledCompany{
		stalledCompany("a@example.com", progress.StepProfile, progress.StepUsers),
		stalledCompany("b@example.com"),
		stalledCompany(""),
	}
	sweep := NewOnboardingSweep(fakeFinder{companies: companies}, sender, client, bus, logger.Discard(), "https://app.inmova.es/")

	result, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stalled != 3 || result.Sent != 2 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("unexpected first result: %+v", result)
	}
	if len(bus.events) != 2 {
		t.Fatalf("expected 2 stalled events, got %d", len(bus.events))
	}

	reminder := sender.sent["a@example.com"]
	if reminder.DashboardURL != "https://app.inmova.es/onboarding" {
		t.Fatalf("unexpected dashboard url %q", reminder.DashboardURL)
	}
	if len(reminder.PendingSteps) != 4 || reminder.PendingSteps[0] != stepLabels[progress.StepBuilding] {
		t.Fatalf("unexpected pending steps %v", reminder.PendingSteps)
	}

	result, err = sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Sent != 0 || result.Skipped != 3 {
		t.Fatalf("expected everything deduplicated, got %+v", result)
	}

	mr.FastForward(reminderWindow + time.Minute)
	result, err = sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if result.Sent != 2 {
		t.Fatalf("expected reminders after the window expired, got %+v", result)
	}
}

func TestSweepReleasesWindowOnSendFailure(t *testing.T) {
	mr, client := newRedis(t)
	company := stalledCompany("rebota@example.com")
	sender := &recordingSender{failFor: company.Email}
	bus := &recordingBus{}
	sweep := NewOnboardingSweep(fakeFinder{companies: []service.StalledCompany{company}}, sender, client, bus, logger.Discard(), "https://app.inmova.es")

	result, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Failed != 1 || len(bus.events) != 0 {
		t.Fatalf("expected one failure and no event, got %+v / %d events", result, len(bus.events))
	}
	if mr.Exists(reminderKeyPrefix + company.ID.String()) {
		t.Fatal("failed send must release the reminder key")
	}
}

func TestSweepWithDeliveryDisabledKeepsWindowFree(t *testing.T) {
	mr, client := newRedis(t)
	company := stalledCompany("sin-smtp@example.com")
	sender := &recordingSender{disabled: true}
	bus := &recordingBus{}
	sweep := NewOnboardingSweep(fakeFinder{companies: []service.StalledCompany{company}}, sender, client, bus, logger.Discard(), "https://app.inmova.es")

	result, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Sent != 0 || result.Skipped != 1 || len(sender.sent) != 0 {
		t.Fatalf("expected nothing delivered, got %+v", result)
	}
	if mr.Exists(reminderKeyPrefix + company.ID.String()) {
		t.Fatal("disabled delivery must not consume the reminder window")
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected one stalled event, got %d", len(bus.events))
	}
	stalled, ok := bus.events[0].(events.OnboardingStalled)
	if !ok || stalled.ReminderSent {
		t.Fatalf("expected OnboardingStalled without reminder, got %+v", bus.events[0])
	}
}

func TestSweepFailsWhenListingFails(t *testing.T) {
	_, client := newRedis(t)
	sweep := NewOnboardingSweep(fakeFinder{err: errors.New("db down")}, &recordingSender{}, client, &recordingBus{}, logger.Discard(), "")

	if _, err := sweep.Run(context.Background()); err == nil {
		t.Fatal("expected listing error")
	}
}

func TestPendingStepsFollowCatalogOrder(t *testing.T) {
	got := pendingSteps([]progress.StepID{progress.StepUnit, progress.StepProfile})
	want := []string{
		stepLabels[progress.StepUsers],
		stepLabels[progress.StepBuilding],
		stepLabels[progress.StepTenant],
		stepLabels[progress.StepContract],
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d steps, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	for _, id := range progress.Catalog() {
		if stepLabels[id] == "" {
			t.Fatalf("step %q has no label", id)
		}
	}
}

func TestSweepPayloadRoundTrip(t *testing.T) {
	task, err := NewOnboardingSweepTask(OnboardingSweepPayload{Trigger: TriggerManual})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskOnboardingStalledSweep {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	payload, err := ParseOnboardingSweepPayload(task)
	if err != nil || payload.Trigger != TriggerManual {
		t.Fatalf("unexpected payload %+v (%v)", payload, err)
	}
}
