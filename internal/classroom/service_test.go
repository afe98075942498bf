package classroom

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hitoshi/caretracker/internal/gateway"
	"github.com/hitoshi/caretracker/internal/model"
)

type mockGateway struct {
	queryFn    func(ctx context.Context, resource string, filters gateway.Filters, ordering []gateway.Order, dest any) error
	queryOneFn func(ctx context.Context, resource string, filters gateway.Filters, dest any) error
}

func (m *mockGateway) Query(ctx context.Context, resource string, filters gateway.Filters, ordering []gateway.Order, dest any) error {
	if m.queryFn != nil {
		return m.queryFn(ctx, resource, filters, ordering, dest)
	}
	return nil
}

func (m *mockGateway) QueryOne(ctx context.Context, resource string, filters gateway.Filters, dest any) error {
	if m.queryOneFn != nil {
		return m.queryOneFn(ctx, resource, filters, dest)
	}
	return nil
}

var _ Gateway = (*mockGateway)(nil)

func TestList_ReturnsClassrooms(t *testing.T) {
	gw := &mockGateway{
		queryFn: func(ctx context.Context, resource string, filters gateway.Filters, ordering []gateway.Order, dest any) error {
			if resource != "v_classrooms" {
				t.Errorf("resource = %q", resource)
			}
			return json.Unmarshal([]byte(
				`[{"classroom_id":"class-1","class_name":"Fundamentals","semester":"Fall 2025","class_number":"NUR101"}]`,
			), dest)
		},
	}

	got, err := NewService(gw).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].ClassName != "Fundamentals" {
		t.Errorf("classrooms = %+v", got)
	}
}

func TestFindByID_Found(t *testing.T) {
	gw := &mockGateway{
		queryOneFn: func(ctx context.Context, resource string, filters gateway.Filters, dest any) error {
			if filters["classroom_id"] != "class-1" {
				t.Errorf("filters = %v", filters)
			}
			return json.Unmarshal([]byte(
				`{"classroom_id":"class-1","class_name":"Fundamentals","semester":"Fall 2025","class_number":"NUR101"}`,
			), dest)
		},
	}

	got, err := NewService(gw).FindByID(context.Background(), "class-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Semester != "Fall 2025" {
		t.Errorf("classroom = %+v", got)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	gw := &mockGateway{
		queryOneFn: func(ctx context.Context, resource string, filters gateway.Filters, dest any) error {
			return gateway.ErrNotFound
		},
	}

	_, err := NewService(gw).FindByID(context.Background(), "missing")
	if !model.IsKind(err, model.KindNotFound) {
		t.Errorf("err = %v, want KindNotFound", err)
	}
}
