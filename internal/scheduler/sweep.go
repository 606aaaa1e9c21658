package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"inmova_backend/internal/email"
	"inmova_backend/internal/events"
	"inmova_backend/internal/onboarding/progress"
	"inmova_backend/internal/onboarding/service"
	"inmova_backend/platform/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	reminderKeyPrefix = "onboarding:reminder:"
	reminderWindow    = 7 * 24 * time.Hour
	sweepConcurrency  = 5
)

var stepLabels = map[progress.StepID]string{
	progress.StepProfile:  "Completar el perfil de la empresa (CIF, dirección y teléfono)",
	progress.StepUsers:    "Invitar al menos a un compañero",
	progress.StepBuilding: "Dar de alta un edificio",
	progress.StepUnit:     "Crear una unidad",
	progress.StepTenant:   "Registrar un inquilino",
	progress.StepContract: "Firmar un contrato",
}

// StalledFinder lists the companies whose onboarding has stalled.
type StalledFinder interface {
	StalledCompanies(ctx context.Context) ([]service.StalledCompany, error)
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Stalled int
	Sent    int
	Skipped int
	Failed  int
}

// OnboardingSweep reminds stalled companies by e-mail, at most once per reminder window.
type OnboardingSweep struct {
	finder  StalledFinder
	sender  email.Sender
	dedupe  redis.Cmdable
	bus     events.Bus
	log     *logger.Logger
	baseURL string
}

func NewOnboardingSweep(finder StalledFinder, sender email.Sender, dedupe redis.Cmdable, bus events.Bus, log *logger.Logger, baseURL string) *OnboardingSweep {
	return &OnboardingSweep{
		finder:  finder,
		sender:  sender,
		dedupe:  dedupe,
		bus:     bus,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Run sends the reminders. Only a failed listing fails the run; per-company
// failures are logged and counted.
func (s *OnboardingSweep) Run(ctx context.Context) (SweepResult, error) {
	companies, err := s.finder.StalledCompanies(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stalled companies: %w", err)
	}

	var sent, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, company := range companies {
		g.Go(func() error {
			switch err := s.remind(gctx, company); {
			case errors.Is(err, errAlreadyReminded), errors.Is(err, errNoContact), errors.Is(err, errDeliveryDisabled):
				skipped.Add(1)
			case err != nil:
				failed.Add(1)
				s.log.Warn("onboarding reminder failed", "companyId", company.ID, "error", err)
			default:
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return SweepResult{
		Stalled: len(companies),
		Sent:    int(sent.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}, nil
}

var (
	errAlreadyReminded  = errors.New("already reminded in this window")
	errNoContact        = errors.New("company has no contact e-mail")
	errDeliveryDisabled = errors.New("e-mail delivery is disabled")
)

func (s *OnboardingSweep) remind(ctx context.Context, company service.StalledCompany) error {
	if strings.TrimSpace(company.Email) == "" {
		return errNoContact
	}
	// Without delivery the window stays free for when e-mail is switched on.
	if !s.sender.Enabled() {
		s.publishStalled(ctx, company, false)
		return errDeliveryDisabled
	}

	key := reminderKeyPrefix + company.ID.String()
	acquired, err := s.dedupe.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), reminderWindow).Result()
	if err != nil {
		return fmt.Errorf("reserve reminder: %w", err)
	}
	if !acquired {
		return errAlreadyReminded
	}

	err = s.sender.SendOnboardingReminder(ctx, company.Email, email.OnboardingReminder{
		CompanyName:     company.Nombre,
		ProgressPercent: company.ProgressPercent,
		PendingSteps:    pendingSteps(company.StepsCompleted),
		DashboardURL:    s.baseURL + "/onboarding",
	})
	if err != nil {
		// Release the window so the next sweep retries.
		if delErr := s.dedupe.Del(context.WithoutCancel(ctx), key).Err(); delErr != nil {
			s.log.Warn("failed to release reminder key", "companyId", company.ID, "error", delErr)
		}
		return err
	}

	s.publishStalled(ctx, company, true)
	return nil
}

func (s *OnboardingSweep) publishStalled(ctx context.Context, company service.StalledCompany, reminderSent bool) {
	s.bus.Publish(ctx, events.OnboardingStalled{
		BaseEvent:       events.NewBaseEvent(),
		CompanyID:       company.ID,
		CompanyName:     company.Nombre,
		ProgressPercent: company.ProgressPercent,
		LastActivityAt:  company.LastActivityAt,
		ReminderSent:    reminderSent,
	})
}

// pendingSteps lists the labels of the steps not yet done, in catalog order.
func pendingSteps(done []progress.StepID) []string {
	pending := make([]string, 0, progress.TotalSteps())
	for _, id := range progress.Catalog() {
		if !slices.Contains(done, id) {
			pending = append(pending, stepLabels[id])
		}
	}
	return pending
}
