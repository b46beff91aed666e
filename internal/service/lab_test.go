package service

import (
	"context"
	"errors"
	"testing"

	"agenda-service/api"
	"agenda-service/pkg/response"
)

func TestCreateLab(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.CreateLab(context.Background(), f.superID, &api.LabRequest{
		Name: "Physics Lab", Capacity: 20, AdminID: &f.labAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Name != "Physics Lab" || resp.Capacity != 20 {
		t.Errorf("got %+v", resp)
	}
	if resp.AdminID == nil || *resp.AdminID != f.labAdmin {
		t.Errorf("admin not assigned: %+v", resp.AdminID)
	}
}

func TestCreateLabOnlySuperAdmin(t *testing.T) {
	f := newFixture()

	for _, actor := range []string{f.requester, f.labAdmin} {
		_, err := f.svc.CreateLab(context.Background(), actor, &api.LabRequest{Name: "x"})
		if !errors.Is(err, response.ErrForbidden) {
			t.Errorf("actor %s: err = %v, want ErrForbidden", actor, err)
		}
	}
}

func TestCreateLabValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name    string
		req     *api.LabRequest
		wantErr error
	}{
		{"blank name", &api.LabRequest{Name: "  "}, response.ErrValidation},
		{"negative capacity", &api.LabRequest{Name: "x", Capacity: -1}, response.ErrValidation},
		// The fixture lab is named "chemistry lab".
		{"name collision ignores case and spacing", &api.LabRequest{Name: "  Chemistry   LAB "}, response.ErrNameTaken},
		{"admin without the role", &api.LabRequest{Name: "x", AdminID: &f.requester}, response.ErrValidation},
		{"unknown admin", &api.LabRequest{Name: "x", AdminID: ptr("ghost")}, response.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateLab(context.Background(), f.superID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateLabKeepsOwnName(t *testing.T) {
	f := newFixture()

	// Renaming a lab to its own name is not a collision.
	resp, err := f.svc.UpdateLab(context.Background(), f.superID, f.labID, &api.LabRequest{
		Name: "Chemistry Lab", Capacity: 40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Capacity != 40 {
		t.Errorf("capacity = %d, want 40", resp.Capacity)
	}
}

func TestDeleteLab(t *testing.T) {
	f := newFixture()

	if err := f.svc.DeleteLab(context.Background(), f.labAdmin, f.labID); !errors.Is(err, response.ErrForbidden) {
		t.Errorf("lab admin delete: err = %v, want ErrForbidden", err)
	}

	if err := f.svc.DeleteLab(context.Background(), f.superID, f.labID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.GetLab(context.Background(), f.labID); !errors.Is(err, response.ErrNotFound) {
		t.Errorf("deleted lab should be gone, err = %v", err)
	}
}

func ptr(s string) *string { return &s }
