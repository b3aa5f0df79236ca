package describe

import (
	"context"
	"errors"
	"log/slog"

	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/notify"
)

// Service runs description generation against a session and reports
// progress on the notification bus. Each step moves through pending to
// ready or error; a failure never removes text the user already accepted.
type Service struct {
	generator Generator
	bus       *notify.Bus
	logger    *slog.Logger
}

// NewService wires a generator to a bus.
func NewService(generator Generator, bus *notify.Bus, logger *slog.Logger) (*Service, error) {
	if generator == nil {
		return nil, errors.New("generator must be provided")
	}
	if bus == nil {
		return nil, errors.New("notification bus must be provided")
	}
	if logger == nil {
		return nil, errors.New("logger must be provided")
	}
	return &Service{generator: generator, bus: bus, logger: logger}, nil
}

// DescribeStep generates and applies a description for one step.
func (s *Service) DescribeStep(ctx context.Context, session *guide.Session, id int) (guide.Step, error) {
	source := s.generator.Source()

	pending, err := session.MarkDescriptionPending(id, source)
	if err != nil {
		return guide.Step{}, err
	}
	s.bus.Publish(notify.StepUpdatedEvent(pending))

	text, genErr := s.generator.Describe(ctx, pending)
	if genErr != nil {
		s.logger.Warn("describe failed", "step", id, "source", source, "error", genErr)
		failed, markErr := session.MarkDescriptionFailed(id, source, genErr.Error())
		if markErr != nil {
			return guide.Step{}, markErr
		}
		s.bus.Publish(notify.StepUpdatedEvent(failed))
		return failed, genErr
	}

	updated, err := session.UpdateDescription(id, text, source)
	if err != nil {
		return guide.Step{}, err
	}
	s.bus.Publish(notify.StepUpdatedEvent(updated))
	return updated, nil
}

// DescribeAll generates descriptions for every step that has none yet.
// The first systemic failure aborts the sweep; per-step text that was
// already generated stays applied.
func (s *Service) DescribeAll(ctx context.Context, session *guide.Session) error {
	for _, step := range session.Steps() {
		if step.Description != "" {
			continue
		}
		if _, err := s.DescribeStep(ctx, session, step.ID); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
