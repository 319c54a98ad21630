package roster

import (
	"errors"
	"strconv"

	"roster-manager/core/logger"
	"roster-manager/feature/roster/models"
	"roster-manager/feature/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for the roster.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the roster routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/roster")

	group.Get("/ranks", h.HandleListRanks)

	members := group.Group("/members")
	members.Get("/", h.HandleListMembers)
	members.Post("/", h.HandleCreateMember)
	members.Get("/:id", h.HandleGetMember)
	members.Delete("/:id", h.HandleDeactivateMember)
	members.Post("/:id/rank", h.HandleChangeRank)
	members.Get("/:id/promotions", h.HandleListPromotions)
	members.Get("/:id/activity", h.HandleListActivity)
	members.Post("/:id/activity", h.HandleLogActivity)

	mappings := group.Group("/rank-mappings")
	mappings.Get("/", h.HandleListRankMappings)
	mappings.Post("/", h.HandleSaveRankMapping)
	mappings.Delete("/:id", h.HandleDeleteRankMapping)

	group.Post("/sync/run", h.HandleRunSync)
}

// HandleRunSync runs a full reconciliation pass against the remote group.
// @Summary Run roster sync
// @Description Reconcile the local roster against the remote group. Pass dry_run=true for a preview.
// @Tags sync
// @Produce json
// @Param dry_run query bool false "Compute the plan without committing"
// @Success 200 {object} sync.Result "Sync Report"
// @Failure 409 {object} map[string]string "Sync Already Running"
// @Router /roster/sync/run [post]
func (h *Handler) HandleRunSync(c *fiber.Ctx) error {
	dryRun := c.QueryBool("dry_run", false)
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.RunSync(c.Context(), dryRun)
	if err != nil {
		if errors.Is(err, sync.ErrSyncInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		l.Error("Sync run failed", zap.Error(err))
		status := fiber.StatusInternalServerError
		if result != nil {
			// Partial statistics still go back to the caller.
			return c.Status(status).JSON(fiber.Map{
				"error":  err.Error(),
				"report": result,
			})
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleListMembers returns the roster.
// @Summary List members
// @Tags roster
// @Produce json
// @Param include_inactive query bool false "Include deactivated members"
// @Success 200 {array} models.Member "Members"
// @Router /roster/members [get]
func (h *Handler) HandleListMembers(c *fiber.Ctx) error {
	includeInactive := c.QueryBool("include_inactive", false)
	l := logger.WithRayID(h.service.logger, c)

	members, err := h.service.ListMembers(c.Context(), includeInactive)
	if err != nil {
		l.Error("Member listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(members)
}

// HandleGetMember returns a single member.
func (h *Handler) HandleGetMember(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return badRequest(c, err)
	}
	member, err := h.service.GetMember(c.Context(), id)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(member)
}

type createMemberRequest struct {
	Handle         string `json:"handle"`
	RobloxUsername string `json:"roblox_username"`
	CurrentRank    string `json:"current_rank"`
	PushRemote     bool   `json:"push_remote"`
}

// HandleCreateMember creates a roster member, optionally adding them to the
// remote group as well.
func (h *Handler) HandleCreateMember(c *fiber.Ctx) error {
	var req createMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	l := logger.WithRayID(h.service.logger, c)

	member := &models.Member{
		Handle:         req.Handle,
		RobloxUsername: req.RobloxUsername,
		CurrentRank:    req.CurrentRank,
	}
	push, err := h.service.AddMember(c.Context(), member, req.PushRemote)
	if err != nil {
		l.Error("Member creation failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"member": member,
		"push":   push,
	})
}

type changeRankRequest struct {
	Rank       string `json:"rank"`
	PromotedBy string `json:"promoted_by"`
	Reason     string `json:"reason"`
}

// HandleChangeRank changes a member's rank and pushes it to the remote group.
// @Summary Change member rank
// @Description Change a member's rank locally and push the change to the remote group.
// @Tags roster
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} RankChangeOutcome "Rank Change Outcome"
// @Router /roster/members/{id}/rank [post]
func (h *Handler) HandleChangeRank(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req changeRankRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	l := logger.WithRayID(h.service.logger, c)

	outcome, err := h.service.ChangeMemberRank(c.Context(), id, req.Rank, req.PromotedBy, req.Reason)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		l.Error("Rank change failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(outcome)
}

// HandleDeactivateMember marks a member inactive. remove_remote=true also
// removes them from the remote group.
func (h *Handler) HandleDeactivateMember(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return badRequest(c, err)
	}
	removeRemote := c.QueryBool("remove_remote", false)
	l := logger.WithRayID(h.service.logger, c)

	push, err := h.service.DeactivateMember(c.Context(), id, removeRemote)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		l.Error("Member deactivation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "deactivated", "push": push})
}

// HandleListPromotions returns a member's rank history.
func (h *Handler) HandleListPromotions(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return badRequest(c, err)
	}
	logs, err := h.service.MemberPromotions(c.Context(), id)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(logs)
}

type logActivityRequest struct {
	ActivityType string `json:"activity_type"`
	Description  string `json:"description"`
	LoggedBy     string `json:"logged_by"`
}

// HandleLogActivity appends an activity entry for a member.
func (h *Handler) HandleLogActivity(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req logActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	entry := &models.ActivityLog{
		MemberID:     id,
		ActivityType: req.ActivityType,
		Description:  req.Description,
		LoggedBy:     req.LoggedBy,
	}
	if err := h.service.LogActivity(c.Context(), entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		return badRequest(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// HandleListActivity returns a member's activity entries.
func (h *Handler) HandleListActivity(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return badRequest(c, err)
	}
	logs, err := h.service.MemberActivity(c.Context(), id)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(logs)
}

// HandleListRankMappings returns all configured rank mappings.
func (h *Handler) HandleListRankMappings(c *fiber.Ctx) error {
	mappings, err := h.service.RankMappings(c.Context())
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(mappings)
}

type saveRankMappingRequest struct {
	SystemRank     string `json:"system_rank"`
	RobloxRoleID   int64  `json:"roblox_role_id"`
	RobloxRoleName string `json:"roblox_role_name"`
	IsActive       *bool  `json:"is_active"`
}

// HandleSaveRankMapping creates or updates the mapping for a system rank.
func (h *Handler) HandleSaveRankMapping(c *fiber.Ctx) error {
	var req saveRankMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	mapping := &models.RankMapping{
		SystemRank:     req.SystemRank,
		RobloxRoleID:   req.RobloxRoleID,
		RobloxRoleName: req.RobloxRoleName,
		IsActive:       true,
	}
	if req.IsActive != nil {
		mapping.IsActive = *req.IsActive
	}
	if err := h.service.SaveRankMapping(c.Context(), mapping); err != nil {
		return badRequest(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mapping)
}

// HandleDeleteRankMapping removes a mapping by ID.
func (h *Handler) HandleDeleteRankMapping(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return badRequest(c, err)
	}
	if err := h.service.DeleteRankMapping(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		return h.dbError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleListRanks returns the tracked rank hierarchy.
func (h *Handler) HandleListRanks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ranks": h.service.Ranks()})
}

func (h *Handler) dbError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c)
	}
	logger.WithRayID(h.service.logger, c).Error("Roster query failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func memberID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}
