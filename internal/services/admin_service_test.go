package services

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
)

func seedUsers(t *testing.T, conn *gorm.DB, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		u := models.User{
			Username:     fmt.Sprintf("user%03d", i),
			Email:        fmt.Sprintf("user%03d@example.com", i),
			PasswordHash: "x",
		}
		if err := conn.Create(&u).Error; err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
	}
}

func TestAdminForbiddenTable(t *testing.T) {
	svc := NewAdminService(setupTestDB(t))
	if _, err := svc.ListRecords("accounts", "", "", 1); !errors.Is(err, ErrForbiddenTable) {
		t.Fatalf("ListRecords: want ErrForbiddenTable, got %v", err)
	}
	if _, err := svc.GetRecord("accounts", 1); !errors.Is(err, ErrForbiddenTable) {
		t.Fatalf("GetRecord: want ErrForbiddenTable, got %v", err)
	}
	if err := svc.UpdateRecord("accounts", 1, map[string]string{"x": "y"}); !errors.Is(err, ErrForbiddenTable) {
		t.Fatalf("UpdateRecord: want ErrForbiddenTable, got %v", err)
	}
	if err := svc.DeleteRecord("accounts", 1); !errors.Is(err, ErrForbiddenTable) {
		t.Fatalf("DeleteRecord: want ErrForbiddenTable, got %v", err)
	}
	if _, err := svc.Columns("accounts"); !errors.Is(err, ErrForbiddenTable) {
		t.Fatalf("Columns: want ErrForbiddenTable, got %v", err)
	}
}

func TestAdminTablesOrder(t *testing.T) {
	svc := NewAdminService(setupTestDB(t))
	got := svc.Tables()
	want := []string{"users", "uploads", "predictions", "logs", "user_settings"}
	if len(got) != len(want) {
		t.Fatalf("tables: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tables[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestListRecordsPagination(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewAdminService(conn)
	seedUsers(t, conn, PageSize+10)

	listing, err := svc.ListRecords("users", "", "", 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(listing.Rows) != PageSize {
		t.Fatalf("page 1 rows = %d, want %d", len(listing.Rows), PageSize)
	}
	if listing.TotalPages != 2 || listing.Total != int64(PageSize+10) {
		t.Fatalf("totals: pages=%d total=%d", listing.TotalPages, listing.Total)
	}

	listing, err = svc.ListRecords("users", "", "", 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(listing.Rows) != 10 {
		t.Fatalf("page 2 rows = %d, want 10", len(listing.Rows))
	}
}

func TestListRecordsClampsPage(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewAdminService(conn)
	seedUsers(t, conn, 3)

	for _, page := range []int{0, -5} {
		listing, err := svc.ListRecords("users", "", "", page)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if listing.Page != 1 || len(listing.Rows) != 3 {
			t.Fatalf("page %d: got page=%d rows=%d", page, listing.Page, len(listing.Rows))
		}
	}
}

func TestListRecordsEmptyTable(t *testing.T) {
	svc := NewAdminService(setupTestDB(t))
	listing, err := svc.ListRecords("uploads", "", "", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if listing.TotalPages != 1 || listing.Total != 0 || len(listing.Rows) != 0 {
		t.Fatalf("empty table: pages=%d total=%d rows=%d", listing.TotalPages, listing.Total, len(listing.Rows))
	}
}

func TestListRecordsSearch(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewAdminService(conn)
	seedUsers(t, conn, 12)

	listing, err := svc.ListRecords("users", "user001", "username", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if listing.Total != 1 || len(listing.Rows) != 1 {
		t.Fatalf("search hits: total=%d rows=%d", listing.Total, len(listing.Rows))
	}

	// An unregistered column falls back to the first column.
	listing, err = svc.ListRecords("users", "user", "no_such_column", 1)
	if err != nil {
		t.Fatalf("fallback search: %v", err)
	}
	if listing.Column != "id" {
		t.Fatalf("search column = %s, want id", listing.Column)
	}
}

func TestUpdateRecordDropsUnknownFields(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewAdminService(conn)
	seedUsers(t, conn, 1)

	err := svc.UpdateRecord("users", 1, map[string]string{
		"username":      "renamed",
		"no_such_field": "boom",
		"id":            "42",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	record, err := svc.GetRecord("users", 1)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if record["username"] != "renamed" {
		t.Fatalf("username = %v", record["username"])
	}
	if fmt.Sprint(record["id"]) != "1" {
		t.Fatalf("primary key was rewritten: %v", record["id"])
	}
}

func TestUpdateRecordOnlyUnknownFields(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewAdminService(conn)
	seedUsers(t, conn, 1)

	if err := svc.UpdateRecord("users", 1, map[string]string{"bogus": "x"}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	record, _ := svc.GetRecord("users", 1)
	if record["username"] != "user001" {
		t.Fatalf("row changed by a no-op update: %v", record["username"])
	}
}

func TestUpdateRecordMissing(t *testing.T) {
	svc := NewAdminService(setupTestDB(t))
	if err := svc.UpdateRecord("users", 99, map[string]string{"username": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewAdminService(conn)
	seedUsers(t, conn, 2)

	if err := svc.DeleteRecord("users", 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetRecord("users", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted row still readable: %v", err)
	}
	if err := svc.DeleteRecord("users", 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: want ErrNotFound, got %v", err)
	}
}

func TestDeleteDoesNotCascade(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewAdminService(conn)
	seedUsers(t, conn, 1)
	upload := models.Upload{UserID: 1, Filename: "f.csv", OriginalFilename: "orig.csv"}
	if err := conn.Create(&upload).Error; err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	pred := models.Prediction{UploadID: upload.ID, Prediction: "satisfied", Probability: 0.9}
	if err := conn.Create(&pred).Error; err != nil {
		t.Fatalf("seed prediction: %v", err)
	}

	if err := svc.DeleteRecord("uploads", int64(upload.ID)); err != nil {
		t.Fatalf("delete upload: %v", err)
	}
	var count int64
	conn.Model(&models.Prediction{}).Where("upload_id = ?", upload.ID).Count(&count)
	if count != 1 {
		t.Fatalf("child predictions = %d, want 1 (no cascade)", count)
	}
}
