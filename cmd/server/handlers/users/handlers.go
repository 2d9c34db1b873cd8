package users

import (
	"context"
	"strings"

	"skillmart/cmd/server/handlers/handlerutil"
	"skillmart/internal/services/users"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersService is what the profile routes need from the users service
type UsersService interface {
	Get(ctx context.Context, id bson.ObjectID) (*users.UserResponse, error)
	UpdateProfile(ctx context.Context, actorID, targetID bson.ObjectID, req users.UpdateProfileRequest) (*users.UserResponse, error)
	AddSection(ctx context.Context, actorID, userID bson.ObjectID, req users.AddSectionRequest) (*users.UserResponse, error)
	DeleteSection(ctx context.Context, actorID, userID, sectionID bson.ObjectID) (*users.UserResponse, error)
	ToggleLike(ctx context.Context, actorID, targetID bson.ObjectID) (*users.UserResponse, error)
	ListLiked(ctx context.Context, actorID bson.ObjectID) ([]users.LikedUser, error)
	Search(ctx context.Context, searcherID bson.ObjectID, req users.SearchRequest) (*users.SearchResponse, error)
	Suggest(ctx context.Context, req users.SuggestRequest) (*users.SuggestResponse, error)
}

// Handlers contains the profile HTTP handlers
type Handlers struct {
	svc       UsersService
	validator *validator.Validate
}

// NewHandlers creates new profile handlers
func NewHandlers(svc UsersService, v *validator.Validate) *Handlers {
	return &Handlers{svc: svc, validator: v}
}

// Get returns a public profile
// @Summary Get a profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /{id} [get]
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := handlerutil.ParamID(c, "id", "Get")
	if err != nil {
		return err
	}

	resp, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return handlerutil.ServiceError(err, "Get", "user_id", id.Hex())
	}
	return c.JSON(resp)
}

// Me returns the caller's own profile
// @Summary Get current user
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} users.UserResponse
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /me [get]
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.Get(c.UserContext(), userID)
	if err != nil {
		return handlerutil.ServiceError(err, "Me", "user_id", userID.Hex())
	}
	return c.JSON(resp)
}

// UpdateProfile applies a partial profile update
// @Summary Update a profile
// @Description Absent or empty fields are left untouched. Only the owner may update.
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "User ID"
// @Param request body users.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /update/{id} [put]
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	actorID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	targetID, err := handlerutil.ParamID(c, "id", "UpdateProfile")
	if err != nil {
		return err
	}

	var req users.UpdateProfileRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateProfile"); err != nil {
		return err
	}

	resp, err := h.svc.UpdateProfile(c.UserContext(), actorID, targetID, req)
	if err != nil {
		return handlerutil.ServiceError(err, "UpdateProfile", "user_id", targetID.Hex())
	}
	return c.JSON(resp)
}

// AddSection appends a work section
// @Summary Add a section
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "User ID"
// @Param request body users.AddSectionRequest true "Section"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /upload/{id} [post]
func (h *Handlers) AddSection(c *fiber.Ctx) error {
	actorID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	userID, err := handlerutil.ParamID(c, "id", "AddSection")
	if err != nil {
		return err
	}

	var req users.AddSectionRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "AddSection"); err != nil {
		return err
	}

	resp, err := h.svc.AddSection(c.UserContext(), actorID, userID, req)
	if err != nil {
		return handlerutil.ServiceError(err, "AddSection", "user_id", userID.Hex())
	}
	return c.JSON(resp)
}

// DeleteSection removes a section and schedules its media for deletion
// @Summary Delete a section
// @Tags users
// @Produce json
// @Security Bearer
// @Param userId path string true "User ID"
// @Param sectionId path string true "Section ID"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /section/{userId}/{sectionId} [delete]
func (h *Handlers) DeleteSection(c *fiber.Ctx) error {
	actorID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	userID, err := handlerutil.ParamID(c, "userId", "DeleteSection")
	if err != nil {
		return err
	}
	sectionID, err := handlerutil.ParamID(c, "sectionId", "DeleteSection")
	if err != nil {
		return err
	}

	resp, err := h.svc.DeleteSection(c.UserContext(), actorID, userID, sectionID)
	if err != nil {
		return handlerutil.ServiceError(err, "DeleteSection", "user_id", userID.Hex(), "section_id", sectionID.Hex())
	}
	return c.JSON(resp)
}

// ToggleLike likes or unlikes a profile
// @Summary Toggle like
// @Tags users
// @Produce json
// @Security Bearer
// @Param id path string true "Target user ID"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /like/{id} [put]
func (h *Handlers) ToggleLike(c *fiber.Ctx) error {
	actorID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	targetID, err := handlerutil.ParamID(c, "id", "ToggleLike")
	if err != nil {
		return err
	}

	resp, err := h.svc.ToggleLike(c.UserContext(), actorID, targetID)
	if err != nil {
		return handlerutil.ServiceError(err, "ToggleLike", "user_id", actorID.Hex(), "target_id", targetID.Hex())
	}
	return c.JSON(resp)
}

// ListLiked returns the profiles the caller likes
// @Summary Liked profiles
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {array} users.LikedUser
// @Failure 404 {object} httperr.E
// @Router /liked [get]
func (h *Handlers) ListLiked(c *fiber.Ctx) error {
	actorID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	liked, err := h.svc.ListLiked(c.UserContext(), actorID)
	if err != nil {
		return handlerutil.ServiceError(err, "ListLiked", "user_id", actorID.Hex())
	}
	return c.JSON(liked)
}

// Search finds providers by profession or name
// @Summary Search profiles
// @Tags users
// @Produce json
// @Security Bearer
// @Param profession query string false "Term matched against profession and name"
// @Param minFee query number false "Minimum fee"
// @Param maxFee query number false "Maximum fee"
// @Param locationFilter query string false "same-city, same-country or different-country"
// @Param likesSort query string false "highest or lowest"
// @Param accountAgeSort query string false "new or old"
// @Success 200 {object} users.SearchResponse
// @Failure 400 {object} httperr.E
// @Router /search [get]
func (h *Handlers) Search(c *fiber.Ctx) error {
	searcherID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req users.SearchRequest
	if err := handlerutil.ParseAndValidateQuery(c, &req, h.validator, "Search"); err != nil {
		return err
	}
	// the query parser turns "minFee=" into a pointer to 0
	req.MinFee = unlessBlank(c, "minFee", req.MinFee)
	req.MaxFee = unlessBlank(c, "maxFee", req.MaxFee)

	resp, err := h.svc.Search(c.UserContext(), searcherID, req)
	if err != nil {
		return handlerutil.ServiceError(err, "Search", "user_id", searcherID.Hex())
	}
	return c.JSON(resp)
}

// Suggest returns typeahead suggestions
// @Summary Suggest professions and names
// @Tags users
// @Accept json
// @Produce json
// @Param request body users.SuggestRequest true "Partial term"
// @Success 200 {object} users.SuggestResponse
// @Failure 400 {object} httperr.E
// @Router /suggest [post]
func (h *Handlers) Suggest(c *fiber.Ctx) error {
	var req users.SuggestRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Suggest"); err != nil {
		return err
	}

	resp, err := h.svc.Suggest(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "Suggest")
	}
	return c.JSON(resp)
}

// unlessBlank drops a parsed value whose query parameter is absent or blank.
func unlessBlank(c *fiber.Ctx, param string, v *float64) *float64 {
	if strings.TrimSpace(c.Query(param)) == "" {
		return nil
	}
	return v
}
