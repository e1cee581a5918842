package notifier

import (
	"context"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when downstream publishing is disabled to avoid null checks
// in the code. This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// PublishReport does nothing and returns nil immediately.
func (n *NoOpNotifier) PublishReport(ctx context.Context, report *entity.Report) error {
	return nil
}
