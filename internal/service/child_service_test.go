package service

import (
	"context"
	"errors"
	"testing"
)

func TestChildProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerParent(t, "alice")
	bob := env.registerChild(t, "bob", alice.Code())

	profile, err := env.children.GetProfile(ctx, bob)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.Child.Username != "bob" || profile.Parent == nil || profile.Parent.Username != "alice" {
		t.Errorf("GetProfile() = %+v", profile)
	}

	parent, err := env.children.GetParent(ctx, bob)
	if err != nil || parent.ID != alice.User().ID {
		t.Errorf("GetParent() = %v, %v", parent, err)
	}

	if err := env.parents.RemoveChild(ctx, alice, bob.User().ID); err != nil {
		t.Fatalf("RemoveChild() error = %v", err)
	}
	stored, _ := env.users.GetUserByID(ctx, bob.User().ID)
	unlinked := asChild(t, stored)

	if _, err := env.children.GetParent(ctx, unlinked); !errors.Is(err, ErrNoParent) {
		t.Errorf("GetParent(unlinked) error = %v, want ErrNoParent", err)
	}
	dash, err := env.children.Dashboard(ctx, unlinked)
	if err != nil || dash.Parent != nil {
		t.Errorf("Dashboard(unlinked) = %+v, %v", dash, err)
	}
}

func TestChildUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerParent(t, "alice")
	bob := env.registerChild(t, "bob", alice.Code())

	got, err := env.children.UpdateProfile(ctx, bob, ProfileInput{Username: strPtr("bobby")})
	if err != nil || got.Username != "bobby" {
		t.Fatalf("UpdateProfile() = %v, %v", got, err)
	}
	if got.ParentID == nil || *got.ParentID != alice.User().ID {
		t.Error("profile update changed the parent link")
	}

	if _, err := env.children.UpdateProfile(ctx, bob, ProfileInput{Email: strPtr("alice@example.com")}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("UpdateProfile(taken email) error = %v", err)
	}
	_, err = env.children.UpdateProfile(ctx, bob, ProfileInput{Email: strPtr("nope")})
	assertKind(t, err, ErrValidation)
}
