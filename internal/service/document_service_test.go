package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"docuhub/internal/apperr"
	"docuhub/internal/model"
	"docuhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeDocumentRepo struct {
	createFn           func(context.Context, *model.Document) error
	getByIDFn          func(context.Context, string) (*model.Document, error)
	listFn             func(context.Context, repository.DocumentFilter) ([]model.Document, int64, error)
	updateFn           func(context.Context, *model.Document) error
	deleteFn           func(context.Context, string) error
	createAssignmentFn func(context.Context, *model.DocumentAssignment) error
	listAssignmentsFn  func(context.Context, string) ([]model.DocumentAssignment, error)
}

func (f *fakeDocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	if f.createFn != nil {
		return f.createFn(ctx, doc)
	}
	return nil
}
func (f *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDocumentRepo) List(ctx context.Context, filter repository.DocumentFilter) ([]model.Document, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, 0, nil
}
func (f *fakeDocumentRepo) Update(ctx context.Context, doc *model.Document) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, doc)
	}
	return nil
}
func (f *fakeDocumentRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}
func (f *fakeDocumentRepo) CreateAssignment(ctx context.Context, assignment *model.DocumentAssignment) error {
	if f.createAssignmentFn != nil {
		return f.createAssignmentFn(ctx, assignment)
	}
	return nil
}
func (f *fakeDocumentRepo) ListAssignments(ctx context.Context, documentID string) ([]model.DocumentAssignment, error) {
	if f.listAssignmentsFn != nil {
		return f.listAssignmentsFn(ctx, documentID)
	}
	return nil, nil
}

type fakeNotifier struct {
	calls []NotifyInput
}

func (f *fakeNotifier) Notify(ctx context.Context, input NotifyInput) {
	f.calls = append(f.calls, input)
}
func (f *fakeNotifier) List(context.Context, string, int, int) ([]NotificationResponse, int64, error) {
	return nil, 0, nil
}
func (f *fakeNotifier) UnreadCount(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeNotifier) MarkRead(context.Context, string, string) (*NotificationResponse, error) {
	return nil, nil
}
func (f *fakeNotifier) ClearRead(context.Context, string) error { return nil }

type activityCall struct {
	documentID uuid.UUID
	action     string
}

type fakeActivity struct {
	calls []activityCall
}

func (f *fakeActivity) Log(ctx context.Context, documentID uuid.UUID, userID *uuid.UUID, action string, details map[string]interface{}) {
	f.calls = append(f.calls, activityCall{documentID: documentID, action: action})
}
func (f *fakeActivity) List(context.Context, string, int, int) ([]ActivityLogResponse, int64, error) {
	return nil, 0, nil
}

type fakeFiles struct {
	removed []string
}

func (f *fakeFiles) Remove(fileURL string) error {
	f.removed = append(f.removed, fileURL)
	return nil
}

func newDocumentServiceForTest(repo *fakeDocumentRepo, notifier *fakeNotifier, activity *fakeActivity, files *fakeFiles) *documentService {
	return NewDocumentService(repo, notifier, activity, files).(*documentService)
}

func TestCreateDocumentSetsActiveStatus(t *testing.T) {
	uploader := uuid.New()
	var created *model.Document
	repo := &fakeDocumentRepo{
		createFn: func(_ context.Context, doc *model.Document) error {
			created = doc
			return nil
		},
	}
	activity := &fakeActivity{}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, activity, &fakeFiles{})

	resp, err := svc.Create(context.Background(), uploader.String(), CreateDocumentRequest{
		Title:    "Q3 Report",
		FileURL:  "/uploads/q3.pdf",
		FileSize: 1024,
		MimeType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created == nil {
		t.Fatal("expected the document row to be inserted")
	}
	if created.Status != model.DocumentStatusActive {
		t.Fatalf("status = %q, want %q", created.Status, model.DocumentStatusActive)
	}
	if created.UploadedBy != uploader {
		t.Fatalf("uploaded_by = %s, want %s", created.UploadedBy, uploader)
	}
	if resp.Title != "Q3 Report" {
		t.Fatalf("title = %q, want %q", resp.Title, "Q3 Report")
	}
	if len(activity.calls) != 1 || activity.calls[0].action != model.ActionDocumentUploaded {
		t.Fatalf("unexpected activity calls: %+v", activity.calls)
	}
}

func TestCreateDocumentRequiresTitle(t *testing.T) {
	svc := newDocumentServiceForTest(&fakeDocumentRepo{}, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})
	_, err := svc.Create(context.Background(), uuid.New().String(), CreateDocumentRequest{FileURL: "/uploads/x.pdf"})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestCreateDocumentWithInitialAssignment(t *testing.T) {
	uploader := uuid.New()
	assignee := uuid.New()
	var assignment *model.DocumentAssignment
	var updated *model.Document
	repo := &fakeDocumentRepo{
		createAssignmentFn: func(_ context.Context, a *model.DocumentAssignment) error {
			assignment = a
			return nil
		},
		updateFn: func(_ context.Context, doc *model.Document) error {
			updated = doc
			return nil
		},
	}
	notifier := &fakeNotifier{}
	svc := newDocumentServiceForTest(repo, notifier, &fakeActivity{}, &fakeFiles{})

	_, err := svc.Create(context.Background(), uploader.String(), CreateDocumentRequest{
		Title:     "Contract",
		FileURL:   "/uploads/contract.pdf",
		AssignTo:  assignee.String(),
		RoleLabel: "Reviewer",
		GiveLock:  true,
		Notify:    true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if assignment == nil {
		t.Fatal("expected an assignment history row")
	}
	if assignment.Status != model.AssignmentStatusAssigned {
		t.Fatalf("assignment status = %q, want %q", assignment.Status, model.AssignmentStatusAssigned)
	}
	if assignment.NotifiedAt == nil {
		t.Fatal("expected notified_at to be stamped when notify is requested")
	}
	if assignment.RoleLabel != "Reviewer" {
		t.Fatalf("role_label = %q, want %q", assignment.RoleLabel, "Reviewer")
	}
	if updated == nil || updated.AssignedToUser == nil || *updated.AssignedToUser != assignee {
		t.Fatalf("expected assignee pointer to move to %s", assignee)
	}
	if updated.LockedBy == nil || *updated.LockedBy != assignee || updated.LockedAt == nil {
		t.Fatal("expected the edit lock to be handed to the assignee")
	}
	if len(notifier.calls) != 1 || notifier.calls[0].RecipientID != assignee {
		t.Fatalf("unexpected notifications: %+v", notifier.calls)
	}
}

func TestCreateDocumentSkipsNotifiedAtWithoutNotify(t *testing.T) {
	var assignment *model.DocumentAssignment
	repo := &fakeDocumentRepo{
		createAssignmentFn: func(_ context.Context, a *model.DocumentAssignment) error {
			assignment = a
			return nil
		},
	}
	notifier := &fakeNotifier{}
	svc := newDocumentServiceForTest(repo, notifier, &fakeActivity{}, &fakeFiles{})

	_, err := svc.Create(context.Background(), uuid.New().String(), CreateDocumentRequest{
		Title:    "Draft",
		AssignTo: uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if assignment.Status != model.AssignmentStatusWaiting {
		t.Fatalf("assignment status = %q, want %q", assignment.Status, model.AssignmentStatusWaiting)
	}
	if assignment.NotifiedAt != nil {
		t.Fatal("expected notified_at to stay empty without notify")
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no notifications, got %+v", notifier.calls)
	}
}

func TestCreateDocumentCompensatesOnAssignmentFailure(t *testing.T) {
	var deleted []string
	repo := &fakeDocumentRepo{
		createAssignmentFn: func(context.Context, *model.DocumentAssignment) error {
			return errors.New("insert failed")
		},
		deleteFn: func(_ context.Context, id string) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	files := &fakeFiles{}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, files)

	_, err := svc.Create(context.Background(), uuid.New().String(), CreateDocumentRequest{
		Title:    "Doomed",
		FileURL:  "/uploads/doomed.pdf",
		AssignTo: uuid.New().String(),
	})
	if err == nil {
		t.Fatal("expected Create() to fail when the assignment insert fails")
	}
	if len(deleted) != 1 {
		t.Fatalf("expected a compensating row delete, got %v", deleted)
	}
	if len(files.removed) != 1 || files.removed[0] != "/uploads/doomed.pdf" {
		t.Fatalf("expected the uploaded file to be removed, got %v", files.removed)
	}
}

func TestAssignUnassignedDocument(t *testing.T) {
	caller := uuid.New()
	assignee := uuid.New()
	doc := &model.Document{ID: uuid.New(), Title: "Open", UploadedBy: uuid.New()}
	var assignment *model.DocumentAssignment
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) { return doc, nil },
		createAssignmentFn: func(_ context.Context, a *model.DocumentAssignment) error {
			assignment = a
			return nil
		},
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	result, err := svc.Assign(context.Background(), doc.ID.String(), caller.String(), AssignDocumentRequest{
		AssigneeID: assignee.String(),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if assignment.AssignedTo != assignee || assignment.AssignedBy != caller {
		t.Fatalf("unexpected assignment row: %+v", assignment)
	}
	if doc.AssignedToUser == nil || *doc.AssignedToUser != assignee {
		t.Fatal("expected the assignee pointer to move")
	}
	if result.Assignment.AssignedTo != assignee.String() {
		t.Fatalf("assigned_to = %q, want %q", result.Assignment.AssignedTo, assignee.String())
	}
}

func TestAssignRejectsNonAssignee(t *testing.T) {
	currentAssignee := uuid.New()
	doc := &model.Document{ID: uuid.New(), AssignedToUser: &currentAssignee}
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) { return doc, nil },
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	_, err := svc.Assign(context.Background(), doc.ID.String(), uuid.New().String(), AssignDocumentRequest{
		AssigneeID: uuid.New().String(),
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestAssignAllowsCurrentAssigneeToPassOn(t *testing.T) {
	currentAssignee := uuid.New()
	next := uuid.New()
	doc := &model.Document{ID: uuid.New(), AssignedToUser: &currentAssignee}
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) { return doc, nil },
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	_, err := svc.Assign(context.Background(), doc.ID.String(), currentAssignee.String(), AssignDocumentRequest{
		AssigneeID: next.String(),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if doc.AssignedToUser == nil || *doc.AssignedToUser != next {
		t.Fatal("expected the baton to pass to the next assignee")
	}
}

func TestAssignResponseCarriesNewAssigneeNames(t *testing.T) {
	oldHolder := uuid.New()
	next := uuid.New()
	docID := uuid.New()
	stale := &model.Document{
		ID:             docID,
		Title:          "Handover",
		UploadedBy:     uuid.New(),
		AssignedToUser: &oldHolder,
		AssignedUser:   &model.User{ID: oldHolder, Name: "Old Holder"},
	}
	fresh := &model.Document{
		ID:             docID,
		Title:          "Handover",
		UploadedBy:     stale.UploadedBy,
		AssignedToUser: &next,
		AssignedUser:   &model.User{ID: next, Name: "New Holder"},
	}
	loads := 0
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) {
			loads++
			if loads == 1 {
				return stale, nil
			}
			return fresh, nil
		},
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	result, err := svc.Assign(context.Background(), docID.String(), oldHolder.String(), AssignDocumentRequest{
		AssigneeID: next.String(),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if result.Document.AssignedToUser == nil || *result.Document.AssignedToUser != next.String() {
		t.Fatalf("assigned_to_user = %v, want %s", result.Document.AssignedToUser, next)
	}
	if result.Document.AssignedUserName != "New Holder" {
		t.Fatalf("assigned_user_name = %q, want %q", result.Document.AssignedUserName, "New Holder")
	}
}

func TestAssignResponseDropsStaleNamesWhenReloadFails(t *testing.T) {
	oldHolder := uuid.New()
	next := uuid.New()
	dept := uuid.New()
	docID := uuid.New()
	stale := &model.Document{
		ID:                 docID,
		UploadedBy:         uuid.New(),
		AssignedToUser:     &oldHolder,
		AssignedUser:       &model.User{ID: oldHolder, Name: "Old Holder"},
		AssignedDepartment: &model.Department{ID: dept, Name: "Legal"},
	}
	loads := 0
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) {
			loads++
			if loads == 1 {
				return stale, nil
			}
			return nil, errors.New("connection reset")
		},
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	result, err := svc.Assign(context.Background(), docID.String(), oldHolder.String(), AssignDocumentRequest{
		AssigneeID: next.String(),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if result.Document.AssignedUserName != "" {
		t.Fatalf("assigned_user_name = %q, want it cleared", result.Document.AssignedUserName)
	}
	if result.Document.AssignedDepartmentName != "" {
		t.Fatalf("assigned_department_name = %q, want it cleared", result.Document.AssignedDepartmentName)
	}
	if result.Document.AssignedToUser == nil || *result.Document.AssignedToUser != next.String() {
		t.Fatalf("assigned_to_user = %v, want %s", result.Document.AssignedToUser, next)
	}
}

func TestAssignRejectsDepartmentHeldDocumentForOutsider(t *testing.T) {
	dept := uuid.New()
	doc := &model.Document{ID: uuid.New(), AssignedToDepartment: &dept}
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) { return doc, nil },
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	_, err := svc.Assign(context.Background(), doc.ID.String(), uuid.New().String(), AssignDocumentRequest{
		AssigneeID: uuid.New().String(),
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestAssignRejectsSelfAssignment(t *testing.T) {
	caller := uuid.New()
	svc := newDocumentServiceForTest(&fakeDocumentRepo{}, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	_, err := svc.Assign(context.Background(), uuid.New().String(), caller.String(), AssignDocumentRequest{
		AssigneeID: caller.String(),
	})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestAssignMissingDocument(t *testing.T) {
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	_, err := svc.Assign(context.Background(), uuid.New().String(), uuid.New().String(), AssignDocumentRequest{
		AssigneeID: uuid.New().String(),
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestLockOwnershipExpiresAfterTTL(t *testing.T) {
	holder := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lockedAt := base
	doc := &model.Document{ID: uuid.New(), LockedBy: &holder, LockedAt: &lockedAt}
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) { return doc, nil },
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	svc.now = func() time.Time { return base.Add(time.Minute) }
	owned, err := svc.IsLockOwnedBy(context.Background(), holder.String(), doc.ID.String())
	if err != nil {
		t.Fatalf("IsLockOwnedBy() error = %v", err)
	}
	if !owned {
		t.Fatal("expected a fresh lock to be owned by its holder")
	}

	owned, err = svc.IsLockOwnedBy(context.Background(), uuid.New().String(), doc.ID.String())
	if err != nil {
		t.Fatalf("IsLockOwnedBy() error = %v", err)
	}
	if owned {
		t.Fatal("expected another user not to own the lock")
	}

	svc.now = func() time.Time { return base.Add(model.LockTTL + time.Second) }
	owned, err = svc.IsLockOwnedBy(context.Background(), holder.String(), doc.ID.String())
	if err != nil {
		t.Fatalf("IsLockOwnedBy() error = %v", err)
	}
	if owned {
		t.Fatal("expected the lock to expire past its TTL")
	}
}

func TestLockOwnershipUnlockedDocument(t *testing.T) {
	doc := &model.Document{ID: uuid.New()}
	repo := &fakeDocumentRepo{
		getByIDFn: func(context.Context, string) (*model.Document, error) { return doc, nil },
	}
	svc := newDocumentServiceForTest(repo, &fakeNotifier{}, &fakeActivity{}, &fakeFiles{})

	owned, err := svc.IsLockOwnedBy(context.Background(), uuid.New().String(), doc.ID.String())
	if err != nil {
		t.Fatalf("IsLockOwnedBy() error = %v", err)
	}
	if owned {
		t.Fatal("expected no lock ownership on an unlocked document")
	}
}
