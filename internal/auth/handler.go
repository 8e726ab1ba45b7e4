package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
)

const minPasswordLength = 6

type SetupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func newAccount(name, email, password string, role models.UserRole) (models.UserAccount, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.UserAccount{}, apperr.Invalid("name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return models.UserAccount{}, apperr.Invalid("invalid email address")
	}
	if len(password) < minPasswordLength {
		return models.UserAccount{}, apperr.Invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.UserAccount{}, fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
	}

	now := time.Now().UTC()
	return models.UserAccount{
		User: models.User{
			ID:        models.NewID(),
			Email:     email,
			Name:      name,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: string(hash),
	}, nil
}

func issue(c *fiber.Ctx, tokens *Tokens, user models.User, status int) error {
	token, err := tokens.Generate(user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
	}
	return c.Status(status).JSON(fiber.Map{"token": token, "user": user})
}

// POST /auth/setup
func SetupHandler(users *Users, tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetupRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		acct, err := newAccount(body.Name, body.Email, body.Password, models.RoleManager)
		if err != nil {
			return apperr.ToFiber(err)
		}
		acct, err = users.Create(c.UserContext(), acct, true)
		if err != nil {
			return apperr.ToFiber(err)
		}

		log.WithField("userId", acct.ID).Info("initial manager account created")
		return issue(c, tokens, acct.User, fiber.StatusCreated)
	}
}

// POST /auth/login
func LoginHandler(users *Users, tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		acct, err := authenticate(c.UserContext(), users, body.Email, body.Password)
		if err != nil {
			return err
		}
		return issue(c, tokens, acct.User, fiber.StatusOK)
	}
}

func authenticate(ctx context.Context, users *Users, email, password string) (models.UserAccount, error) {
	acct, err := users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return models.UserAccount{}, fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}
		return models.UserAccount{}, apperr.ToFiber(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return models.UserAccount{}, fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
	}
	return acct, nil
}

// GET /auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user": user})
	}
}

// POST /auth/signup
func SignupHandler(users *Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var body SignupRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Role == "" {
			body.Role = models.RoleCashier
		}
		if !body.Role.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "role must be one of cashier, admin, manager")
		}
		if !creator.Role.AtLeast(body.Role) {
			return fiber.NewError(fiber.StatusForbidden, "cannot create a user with a higher role than your own")
		}

		acct, err := newAccount(body.Name, body.Email, body.Password, body.Role)
		if err != nil {
			return apperr.ToFiber(err)
		}
		acct, err = users.Create(c.UserContext(), acct, false)
		if err != nil {
			return apperr.ToFiber(err)
		}

		log.WithFields(log.Fields{"userId": acct.ID, "role": acct.Role, "createdBy": creator.ID}).Info("user created")
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": acct.User})
	}
}
