package usergraph

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/hanpama/usergraph/internal/datasvc"
	"go.uber.org/zap"
)

// A 404 on a to-one lookup is an absent record, not a fault. Every other
// failure is returned so the field resolves to null with an error.

func (t *Types) userCompany(ctx context.Context, u *User, _ map[string]any) (any, error) {
	if u.CompanyID == "" {
		return nil, nil
	}
	return t.fetchCompany(ctx, string(u.CompanyID))
}

func (t *Types) companyUsers(ctx context.Context, c *Company, _ map[string]any) (any, error) {
	var users []*User
	if err := t.ds.Get(ctx, "/companies/"+url.PathEscape(string(c.ID))+"/users", &users); err != nil {
		return nil, fmt.Errorf("fetch users of company %s: %w", c.ID, err)
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}

func (t *Types) user(ctx context.Context, _ any, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	var u User
	err := t.ds.Get(ctx, "/users/"+url.PathEscape(id), &u)
	if errors.Is(err, datasvc.ErrNotFound) {
		t.log.Debug("user not found", zap.String("id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return &u, nil
}

func (t *Types) company(ctx context.Context, _ any, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	return t.fetchCompany(ctx, id)
}

func (t *Types) fetchCompany(ctx context.Context, id string) (any, error) {
	var c Company
	err := t.ds.Get(ctx, "/companies/"+url.PathEscape(id), &c)
	if errors.Is(err, datasvc.ErrNotFound) {
		t.log.Debug("company not found", zap.String("id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch company %s: %w", id, err)
	}
	return &c, nil
}

func (t *Types) addUser(ctx context.Context, _ any, args map[string]any) (any, error) {
	in, err := userInputFromArgs(args)
	if err != nil {
		return nil, err
	}
	var u User
	if err := t.ds.Post(ctx, "/users", in, &u); err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	t.log.Info("user added", zap.Stringer("id", u.ID))
	return &u, nil
}

func (t *Types) updateUser(ctx context.Context, _ any, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	in, err := userInputFromArgs(args)
	if err != nil {
		return nil, err
	}
	var u User
	if err := t.ds.Patch(ctx, "/users/"+url.PathEscape(id), in, &u); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	t.log.Info("user updated", zap.String("id", id))
	return &u, nil
}

// deleteUser returns whatever the data service answers for the deletion,
// which is the record as it was before removal.
func (t *Types) deleteUser(ctx context.Context, _ any, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	var u User
	if err := t.ds.Delete(ctx, "/users/"+url.PathEscape(id), &u); err != nil {
		return nil, fmt.Errorf("delete user %s: %w", id, err)
	}
	t.log.Info("user deleted", zap.String("id", id))
	return &u, nil
}
