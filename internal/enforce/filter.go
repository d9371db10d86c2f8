package enforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/perm"
	"github.com/bizdesk/backoffice/internal/security"
	log "github.com/sirupsen/logrus"
)

// Action identifies one of the four enforced CRUD actions.
type Action string

const (
	ActionInsert Action = "Insert"
	ActionEdit   Action = "Edit"
	ActionDelete Action = "Delete"
	ActionQuery  Action = "Query"
)

// ControllerPrefix is prepended to a program code to form its controller name.
const ControllerPrefix = "api"

// MenuControllerName is the menu-loading controller, exempt from per-menu gating.
const MenuControllerName = "apiSYSMENU"

// actionForSegment maps trailing route segments to enforced actions.
// Segments not listed here pass through the filter unenforced.
var actionForSegment = map[string]Action{
	"search": ActionQuery,
	"insert": ActionInsert,
	"edit":   ActionEdit,
	"delete": ActionDelete,
}

// ActionForSegment resolves the enforced action for a route segment.
func ActionForSegment(segment string) (Action, bool) {
	action, ok := actionForSegment[strings.ToLower(strings.TrimSpace(segment))]
	return action, ok
}

// Decision is the outcome of an allowed enforcement evaluation.
type Decision struct {
	Identity     security.Identity
	Capabilities perm.Capabilities
}

// Enforcer combines token decoding, menu-binding verification, and
// permission resolution into the per-request allow/deny decision.
type Enforcer struct {
	resolver *perm.Resolver
	jwtCfg   config.JWTConfig
	strict   bool
}

// NewEnforcer constructs an Enforcer. When strict is set, requests whose
// menu context cannot be resolved are denied instead of waved through.
func NewEnforcer(resolver *perm.Resolver, jwtCfg config.JWTConfig, strict bool) *Enforcer {
	return &Enforcer{resolver: resolver, jwtCfg: jwtCfg, strict: strict}
}

// ProgramCode strips the controller prefix from a controller name.
func ProgramCode(controllerName string) string {
	return strings.TrimPrefix(controllerName, ControllerPrefix)
}

// Authorize evaluates one CRUD request. The decision is final for the
// request and never cached; every call re-decodes the token and re-reads
// grants so permission changes take effect immediately.
func (e *Enforcer) Authorize(ctx context.Context, token, controllerName string, action Action, menuToken string, subWindowQuery bool) (Decision, error) {
	identity, errToken := security.ParseSessionToken(e.jwtCfg.Secret, token)
	if errToken != nil {
		return Decision{}, ErrUnauthenticated
	}
	decision := Decision{Identity: identity}

	var (
		menuID       uint64
		menuResolved bool
	)
	if strings.TrimSpace(menuToken) != "" {
		programCode, boundMenuID, errBinding := security.DecryptMenuBinding(e.jwtCfg.Secret, menuToken)
		if errBinding != nil {
			// Malformed-but-present binding tokens degrade to the
			// unresolved path rather than hard-failing.
			log.WithError(errBinding).WithField("controller", controllerName).
				Debug("enforce: unreadable menu binding token")
		} else if ControllerPrefix+programCode != controllerName {
			return Decision{}, ErrIllegalRequest
		} else {
			menuID = boundMenuID
			menuResolved = true
		}
	}

	if subWindowQuery || controllerName == MenuControllerName {
		decision.Capabilities = perm.Capabilities{CanUse: true, IsAvailableNow: true}
		return decision, nil
	}

	if identity.SuperUser {
		decision.Capabilities = perm.AllCapabilities()
		return decision, nil
	}

	if !menuResolved {
		resolvedID, found, errResolve := e.resolver.MenuIDForProgram(ctx, identity.PNO, ProgramCode(controllerName))
		if errResolve != nil {
			return Decision{}, fmt.Errorf("enforce: resolve menu: %w", errResolve)
		}
		if found {
			menuID = resolvedID
			menuResolved = true
		}
	}

	if !menuResolved {
		if e.strict {
			return Decision{}, &ForbiddenError{Action: action}
		}
		// Legacy compatibility: no menu context resolves to no restriction.
		log.WithFields(log.Fields{
			"pno":        identity.PNO,
			"controller": controllerName,
			"action":     action,
		}).Warn("enforce: no menu context resolved, allowing by legacy default")
		decision.Capabilities = perm.Capabilities{CanUse: true, IsAvailableNow: true}
		return decision, nil
	}

	capabilities, errResolve := e.resolver.Resolve(ctx, identity, menuID)
	if errResolve != nil {
		return Decision{}, fmt.Errorf("enforce: resolve capabilities: %w", errResolve)
	}
	if !capabilities.CanUse || !capabilities.IsAvailableNow || !actionAllowed(capabilities, action) {
		return Decision{}, &ForbiddenError{Action: action}
	}
	decision.Capabilities = capabilities
	return decision, nil
}

// actionAllowed maps an action to its capability flag.
func actionAllowed(capabilities perm.Capabilities, action Action) bool {
	switch action {
	case ActionInsert:
		return capabilities.Insert
	case ActionEdit:
		return capabilities.Edit
	case ActionDelete:
		return capabilities.Delete
	case ActionQuery:
		return capabilities.Query
	default:
		return false
	}
}
