package main

import (
	"bytes"
	"strings"
	"testing"

	iamservices "github.com/jacksonlee411/peopleops/modules/iam/services"
)

const testSecret = "dbtool-test-secret-0123456789"

func TestTokenCmd_IssuesVerifiableToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", testSecret)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "u1", "--role", "payroll-manager", "--ttl", "1h"})
	if err := root.Execute(); err != nil {
		t.Fatalf("err=%v", err)
	}

	tokens, err := iamservices.NewTokenService(testSecret, "peopleops")
	if err != nil {
		t.Fatal(err)
	}
	id, err := tokens.Verify(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if id.Subject != "u1" || id.Role != "payroll-manager" {
		t.Fatalf("id=%+v", id)
	}
}

func TestTokenCmd_RejectsUnknownRole(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", testSecret)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--subject", "u1", "--role", "tenant-admin"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error")
	}
}

func TestMigrateCmd_RejectsUnknownAction(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate", "sideways"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error")
	}
}
