package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/domain/models"
)

func user(name, role string) models.User {
	return models.User{FullName: name, FullNameCI: strings.ToLower(name), LoginID: strings.ToLower(name), Role: role, Status: "active"}
}

func TestSortByRank(t *testing.T) {
	users := []models.User{
		user("Zed", "member"),
		user("Amy", "member"),
		user("Odd", "owner"),
		user("Root", "super_admin"),
		user("Lee", "mc_leader"),
		user("Bo", "branch_admin"),
	}
	sortByRank(users, rbac.DefaultHierarchy())

	var got []string
	for _, u := range users {
		got = append(got, u.FullName)
	}
	want := []string{"Root", "Bo", "Lee", "Amy", "Zed", "Odd"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestPrintUsers(t *testing.T) {
	var buf bytes.Buffer
	printUsers(&buf, []models.User{user("Root", "super_admin"), user("Odd", "owner")}, rbac.DefaultHierarchy())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if f := strings.Fields(lines[1]); f[0] != "4" || f[1] != "super_admin" {
		t.Errorf("root row = %q", lines[1])
	}
	if f := strings.Fields(lines[2]); f[0] != "0" || f[1] != "owner" {
		t.Errorf("unknown role row = %q", lines[2])
	}
	if lines[4] != "2 users" {
		t.Errorf("footer = %q", lines[4])
	}
}
