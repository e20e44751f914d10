package rbac

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/docgate/docgate/internals/schemas"

	"github.com/casbin/casbin/v2"
)

// Decision is the outcome of a single permission check.
type Decision struct {
	Subject  string
	Resource string
	Action   string
	Allowed  bool
}

func (d Decision) String() string {
	verb := "cannot"
	if d.Allowed {
		verb = "can"
	}
	return fmt.Sprintf("User '%s' %s %s %ss", d.Subject, verb, d.Action, d.Resource)
}

type Config struct {
	ModelPath  string
	PolicyPath string
	Logger     *slog.Logger
}

// Gate answers permission questions against a casbin role model. It is safe
// for concurrent use, including while the policy is being reloaded.
type Gate struct {
	enforcer   *casbin.SyncedEnforcer
	logger     *slog.Logger
	policyPath string
}

func New(cfg Config) (*Gate, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enforcer, err := casbin.NewSyncedEnforcer(cfg.ModelPath, cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return &Gate{
		enforcer:   enforcer,
		logger:     logger.With(slog.String("component", "rbac")),
		policyPath: cfg.PolicyPath,
	}, nil
}

func (g *Gate) Allowed(subject, resource, action string) bool {
	return g.Decide(subject, resource, action).Allowed
}

// Decide evaluates the policy. Evaluation errors and empty subjects deny.
func (g *Gate) Decide(subject, resource, action string) Decision {
	d := Decision{Subject: subject, Resource: resource, Action: action}
	if subject == "" {
		return d
	}
	ok, err := g.enforcer.Enforce(subject, resource, action)
	if err != nil {
		g.logger.Error("Policy evaluation failed",
			slog.String("subject", subject),
			slog.String("resource", resource),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return d
	}
	d.Allowed = ok
	g.logger.Debug("Permission checked",
		slog.String("subject", subject),
		slog.String("resource", resource),
		slog.String("action", action),
		slog.Bool("allowed", ok),
	)
	return d
}

// UserRole returns the first role assigned to user, or "" when none is.
func (g *Gate) UserRole(user string) string {
	roles, err := g.enforcer.GetRolesForUser(user)
	if err != nil || len(roles) == 0 {
		return ""
	}
	return roles[0]
}

func (g *Gate) Users() ([]schemas.User, error) {
	rules, err := g.enforcer.GetGroupingPolicy()
	if err != nil {
		return nil, err
	}
	users := make([]schemas.User, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 2 {
			continue
		}
		users = append(users, schemas.User{Username: rule[0], Role: rule[1]})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (g *Gate) PermissionsForRole(role string) ([]schemas.Permission, error) {
	rules, err := g.enforcer.GetPermissionsForUser(role)
	if err != nil {
		return nil, err
	}
	perms := make([]schemas.Permission, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		perms = append(perms, schemas.Permission{Resource: rule[1], Action: rule[2]})
	}
	return perms, nil
}

// Reload re-reads the policy file. The previous policy stays active on error.
func (g *Gate) Reload() error {
	if err := g.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("reload policy: %w", err)
	}
	g.logger.Info("Policy reloaded", slog.String("path", g.policyPath))
	return nil
}
