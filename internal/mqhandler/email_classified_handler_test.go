package mqhandler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "firmflow/contracts/mq"
	"firmflow/internal/flow"
	"firmflow/internal/model"
	"firmflow/internal/repository"
	"firmflow/internal/store"
)

type sentMail struct {
	to, subject, body string
}

type captureMailer struct {
	sent []sentMail
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func newClassifiedFixture(t *testing.T) (*EmailClassifiedHandler, *repository.TodoRepository, *repository.EmployeeRepository, *captureMailer) {
	t.Helper()
	st := store.NewMemory()
	todos := repository.NewTodoRepository(st)
	employees := repository.NewEmployeeRepository(st)
	mail := &captureMailer{}
	h := NewEmailClassifiedHandler(
		employees,
		flow.NewApplier(todos, zap.NewNop(), nil),
		mail,
		newFakeDeduper(),
		zap.NewNop(),
	)
	return h, todos, employees, mail
}

func marshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestEmailClassifiedUrgentCreatesTodoAndMails(t *testing.T) {
	h, todos, employees, mail := newClassifiedFixture(t)
	ctx := context.Background()
	require.NoError(t, employees.Create(ctx, &model.Employee{
		ID: "emp-1", Name: "Meera", Email: "meera@snc.example", Roles: []string{"Audit"},
	}))

	err := h.HandleEmailClassified(ctx, marshal(t, mqcontracts.EmailClassifiedPayload{
		EventID:   "evt-1",
		Category:  model.EmailUrgent,
		Summary:   "GST notice needs a same-day reply",
		ClientID:  "client-1",
		VisibleTo: []string{"emp-1"},
	}))
	require.NoError(t, err)

	got, err := todos.FindByAssignee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.TodoGeneralTask, got[0].Type)
	assert.Equal(t, model.RelatedClient, got[0].RelatedType)
	assert.Equal(t, "client-1", got[0].RelatedID)
	assert.Contains(t, got[0].Text, "GST notice")

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "meera@snc.example", mail.sent[0].to)
}

func TestEmailClassifiedNonUrgentIsDropped(t *testing.T) {
	h, todos, _, mail := newClassifiedFixture(t)
	ctx := context.Background()

	err := h.HandleEmailClassified(ctx, marshal(t, mqcontracts.EmailClassifiedPayload{
		EventID:   "evt-2",
		Category:  model.EmailGeneral,
		Summary:   "monthly statement",
		VisibleTo: []string{"emp-1"},
	}))
	require.NoError(t, err)

	all, err := todos.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, mail.sent)
}

func TestEmailClassifiedUnknownAssigneeSkipsMail(t *testing.T) {
	h, todos, _, mail := newClassifiedFixture(t)
	ctx := context.Background()

	err := h.HandleEmailClassified(ctx, marshal(t, mqcontracts.EmailClassifiedPayload{
		EventID:   "evt-3",
		Category:  model.EmailUrgent,
		Summary:   "income tax scrutiny",
		VisibleTo: []string{"emp-ghost"},
	}))
	require.NoError(t, err)

	// Todo still lands even when no mail address resolves.
	got, err := todos.FindByAssignee(ctx, "emp-ghost")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Empty(t, mail.sent)
}

func TestEmailClassifiedBadPayloadAcks(t *testing.T) {
	h, _, _, _ := newClassifiedFixture(t)
	assert.NoError(t, h.HandleEmailClassified(context.Background(), json.RawMessage(`{not json`)))
}
