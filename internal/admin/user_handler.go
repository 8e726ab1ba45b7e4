// Package admin holds the manager-only user management endpoints.
package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

type UpdateUserRequest struct {
	Name *string          `json:"name"`
	Role *models.UserRole `json:"role"`
}

// GET /users
func ListUsersHandler(users *auth.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := users.List(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"users": list})
	}
}

// PUT /users/:id
func UpdateUserHandler(users *auth.Users, audits *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == nil && body.Role == nil {
			return fiber.NewError(fiber.StatusBadRequest, "name or role is required")
		}

		id := c.Params("id")
		acct, err := users.Update(c.UserContext(), id, func(a *models.UserAccount) ([]kvstore.Op, error) {
			before := a.User
			var changes []string

			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return nil, apperr.Invalid("name cannot be empty")
				}
				if name != a.Name {
					changes = append(changes, fmt.Sprintf("name %q -> %q", a.Name, name))
					a.Name = name
				}
			}
			if body.Role != nil && *body.Role != a.Role {
				if !body.Role.Valid() {
					return nil, apperr.Invalid("role must be one of cashier, admin, manager")
				}
				if a.ID == actor.ID {
					return nil, apperr.Invalid("you cannot change your own role")
				}
				changes = append(changes, fmt.Sprintf("role %s -> %s", a.Role, *body.Role))
				a.Role = *body.Role
			}
			if len(changes) == 0 {
				return nil, nil
			}
			a.UpdatedAt = time.Now().UTC()

			_, op, err := audits.Entry(audit.LogOptions{
				Actor:       actor.Actor(),
				EntityType:  "user",
				EntityID:    a.ID,
				Action:      models.AuditActionUpdate,
				Description: "Updated user " + a.Email + ": " + strings.Join(changes, ", "),
				Before:      before,
				After:       a.User,
			})
			if err != nil {
				return nil, apperr.Storage(err, "build audit entry")
			}
			return []kvstore.Op{op}, nil
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		log.WithFields(log.Fields{"userId": acct.ID, "role": acct.Role, "updatedBy": actor.ID}).Info("user updated")
		return c.JSON(fiber.Map{"user": acct.User})
	}
}
