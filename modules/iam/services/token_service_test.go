package services

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jacksonlee411/peopleops/modules/iam/domain/types"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenService_IssueVerify(t *testing.T) {
	svc, err := NewTokenService(testSecret, "peopleops")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	tok, err := svc.Issue(types.Identity{Subject: "u1", EmployeeID: "65f1c0a2b3d4e5f601234567", Role: "Payroll-Specialist"}, time.Hour)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	id, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if id.Subject != "u1" || id.EmployeeID != "65f1c0a2b3d4e5f601234567" || id.Role != "payroll-specialist" {
		t.Fatalf("id=%+v", id)
	}
}

func TestTokenService_VerifyRejects(t *testing.T) {
	svc, err := NewTokenService(testSecret, "peopleops")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("garbage", func(t *testing.T) {
		if _, err := svc.Verify("not.a.token"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("expired", func(t *testing.T) {
		old := *svc
		old.NowUTC = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, err := old.Issue(types.Identity{Subject: "u1"}, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Verify(tok); err == nil {
			t.Fatal("expected expiry error")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewTokenService(strings.Repeat("x", 32), "peopleops")
		tok, err := other.Issue(types.Identity{Subject: "u1"}, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Verify(tok); err == nil {
			t.Fatal("expected signature error")
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, _ := NewTokenService(testSecret, "someone-else")
		tok, err := other.Issue(types.Identity{Subject: "u1"}, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Verify(tok); err == nil {
			t.Fatal("expected issuer error")
		}
	})

	t.Run("alg none", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1", Issuer: "peopleops"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Verify(tok); err == nil {
			t.Fatal("expected method error")
		}
	})
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short", "x"); err == nil {
		t.Fatal("expected error")
	}
	svc, _ := NewTokenService(testSecret, "x")
	if _, err := svc.Issue(types.Identity{}, time.Hour); err == nil {
		t.Fatal("expected subject error")
	}
}
