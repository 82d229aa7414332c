package repository

import (
	"context"
	"time"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

type EngagementTypeRepository struct {
	store store.Store
}

func NewEngagementTypeRepository(s store.Store) *EngagementTypeRepository {
	return &EngagementTypeRepository{store: s}
}

func (r *EngagementTypeRepository) FindByID(ctx context.Context, id string) (*model.EngagementType, error) {
	doc, err := r.store.Get(ctx, store.EngagementTypes, id)
	if err != nil {
		return nil, err
	}
	return decodeOne[model.EngagementType](doc)
}

func (r *EngagementTypeRepository) Create(ctx context.Context, t *model.EngagementType) error {
	return r.store.Set(ctx, store.EngagementTypes, t.ID, t)
}

type FirmRepository struct {
	store store.Store
}

func NewFirmRepository(s store.Store) *FirmRepository {
	return &FirmRepository{store: s}
}

func (r *FirmRepository) FindByID(ctx context.Context, id string) (*model.Firm, error) {
	doc, err := r.store.Get(ctx, store.Firms, id)
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Firm](doc)
}

func (r *FirmRepository) Create(ctx context.Context, f *model.Firm) error {
	return r.store.Set(ctx, store.Firms, f.ID, f)
}

type LeaveRequestRepository struct {
	store store.Store
}

func NewLeaveRequestRepository(s store.Store) *LeaveRequestRepository {
	return &LeaveRequestRepository{store: s}
}

func (r *LeaveRequestRepository) FindByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	doc, err := r.store.Get(ctx, store.LeaveRequests, id)
	if err != nil {
		return nil, err
	}
	return decodeOne[model.LeaveRequest](doc)
}

func (r *LeaveRequestRepository) Create(ctx context.Context, l *model.LeaveRequest) error {
	doc := *l
	doc.StartDate = doc.StartDate.UTC()
	doc.EndDate = doc.EndDate.UTC()
	return r.store.Set(ctx, store.LeaveRequests, doc.ID, &doc)
}

type CalendarEventRepository struct {
	store store.Store
}

func NewCalendarEventRepository(s store.Store) *CalendarEventRepository {
	return &CalendarEventRepository{store: s}
}

// FindByAttendeeInRange returns events where the employee is an attendee and
// the start time falls within [from, to].
func (r *CalendarEventRepository) FindByAttendeeInRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.CalendarEvent, error) {
	docs, err := r.store.Query(ctx, store.CalendarEvents,
		store.Where("attendeeIds", store.OpContains, employeeID),
		store.Where("start", store.OpGte, dateText(from)),
		store.Where("start", store.OpLte, dateText(to)))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.CalendarEvent](docs)
}

func (r *CalendarEventRepository) Create(ctx context.Context, e *model.CalendarEvent) error {
	doc := *e
	doc.Start = doc.Start.UTC()
	doc.End = doc.End.UTC()
	return r.store.Set(ctx, store.CalendarEvents, doc.ID, &doc)
}

type TimesheetRepository struct {
	store store.Store
}

func NewTimesheetRepository(s store.Store) *TimesheetRepository {
	return &TimesheetRepository{store: s}
}

// FindByEmployeeWeekRange returns timesheets whose week-start falls within
// [from, to] for one employee.
func (r *TimesheetRepository) FindByEmployeeWeekRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.Timesheet, error) {
	docs, err := r.store.Query(ctx, store.Timesheets,
		store.Where("employeeId", store.OpEq, employeeID),
		store.Where("weekStart", store.OpGte, dateText(from)),
		store.Where("weekStart", store.OpLte, dateText(to)))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Timesheet](docs)
}

func (r *TimesheetRepository) Create(ctx context.Context, t *model.Timesheet) error {
	doc := *t
	doc.WeekStart = doc.WeekStart.UTC()
	return r.store.Set(ctx, store.Timesheets, doc.ID, &doc)
}
