package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"firmflow/internal/model"
	"firmflow/internal/repository"
	"firmflow/pkg/metrics"
)

// todoNamespace seeds deterministic todo ids. Running the same flow against
// the same source entity again regenerates identical ids, so re-runs
// overwrite their own output instead of duplicating it.
var todoNamespace = uuid.MustParse("7c9e6f3a-1b2d-4e5f-8a9b-0c1d2e3f4a5b")

// TodoID derives the stable id for a todo produced by flowName for
// sourceID, related to relatedID and assigned to assigneeID.
func TodoID(flowName, sourceID, relatedID, assigneeID string) string {
	return uuid.NewSHA1(todoNamespace, []byte(flowName+"|"+sourceID+"|"+relatedID+"|"+assigneeID)).String()
}

// Applier is the single write path for flow side effects. Flows hand it a
// fully validated plan; it persists the batch atomically.
type Applier struct {
	todos  *repository.TodoRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewApplier(todos *repository.TodoRepository, logger *zap.Logger, now func() time.Time) *Applier {
	if now == nil {
		now = time.Now
	}
	return &Applier{todos: todos, logger: logger, now: now}
}

// TodoSpec describes one todo a flow wants created. The applier fills in
// the id and timestamp.
type TodoSpec struct {
	Type        string
	Text        string
	AssignedTo  []string
	RelatedType string
	RelatedID   string
}

// CreateTodos writes the batch in one transaction and records metrics per
// todo type. SourceID is the entity that triggered the flow (leave request,
// employee, engagement) and anchors the deterministic ids.
func (a *Applier) CreateTodos(ctx context.Context, flowName, sourceID, createdBy string, specs []TodoSpec) ([]model.Todo, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	now := a.now().UTC()
	todos := make([]model.Todo, 0, len(specs))
	for _, s := range specs {
		assignee := ""
		if len(s.AssignedTo) > 0 {
			assignee = s.AssignedTo[0]
		}
		todos = append(todos, model.Todo{
			ID:          TodoID(flowName, sourceID, s.RelatedID, assignee),
			Type:        s.Type,
			Text:        s.Text,
			AssignedTo:  s.AssignedTo,
			RelatedType: s.RelatedType,
			RelatedID:   s.RelatedID,
			Completed:   false,
			CreatedAt:   now,
			CreatedBy:   createdBy,
		})
	}
	if err := a.todos.CreateBatch(ctx, todos); err != nil {
		return nil, fmt.Errorf("create todos: %w", err)
	}
	metrics.RecordTodoCreated(flowName, len(todos))
	a.logger.Info("todos created",
		zap.String("flow", flowName),
		zap.String("source", sourceID),
		zap.Int("count", len(todos)))
	return todos, nil
}
