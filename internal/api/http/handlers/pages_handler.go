package handlers

import (
	"path"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-console/internal/api/dto"
	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/identity"
	"github.com/spec-kit/restaurant-console/internal/repository"
	apperrors "github.com/spec-kit/restaurant-console/pkg/util/errorutil"
)

// Paths of the guarded console pages.
const (
	AdminPath                = "/admin"
	AdminAnalysisPath        = "/admin/analysis"
	AdminOrderManagementPath = "/admin/order-management"
	AdminUserManagementPath  = "/admin/user-management"
	AdminSettingPath         = "/admin/setting"

	ResAdminPath          = "/res-admin"
	ResAdminMenuPath      = "/res-admin/menu"
	ResAdminOrderPath     = "/res-admin/order"
	ResAdminProfilePath   = "/res-admin/profile"
	ResAdminPromotionPath = "/res-admin/promotion"
	ResAdminReviewPath    = "/res-admin/review"
	ResAdminAnalysisPath  = "/res-admin/analysis"
)

// Public sign-in entry points linked from the landing page.
const (
	AdminLoginPath    = "/admin-login"
	ResAdminLoginPath = "/res-admin-login"
)

// GuardedPages is the literal allow-list of every guarded page.
var GuardedPages = map[string][]domain.Role{
	AdminPath:                {domain.RoleAdmin},
	AdminAnalysisPath:        {domain.RoleAdmin},
	AdminOrderManagementPath: {domain.RoleAdmin},
	AdminUserManagementPath:  {domain.RoleAdmin},
	AdminSettingPath:         {domain.RoleAdmin},

	ResAdminPath:          {domain.RoleRestaurantAdmin},
	ResAdminMenuPath:      {domain.RoleRestaurantAdmin},
	ResAdminOrderPath:     {domain.RoleRestaurantAdmin},
	ResAdminProfilePath:   {domain.RoleRestaurantAdmin},
	ResAdminPromotionPath: {domain.RoleRestaurantAdmin},
	ResAdminReviewPath:    {domain.RoleRestaurantAdmin},
	ResAdminAnalysisPath:  {domain.RoleRestaurantAdmin},
}

const recentRestaurants = 5

// LandingLink is one call to action on the home page.
type LandingLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Landing is the role-specific home page content.
type Landing struct {
	Title   string        `json:"title"`
	Message string        `json:"message"`
	Links   []LandingLink `json:"links"`
}

// LandingFor picks the home page content for a session. Failed or
// unprovisioned sessions get the public content.
func LandingFor(st identity.State) *Landing {
	if st.Loading {
		return nil
	}
	switch st.Role() {
	case domain.RoleAdmin:
		return &Landing{
			Title:   "Welcome, Admin!",
			Message: "Manage the platform, view analytics, and configure settings.",
			Links: []LandingLink{
				{Label: "Go to Dashboard", Path: AdminPath},
				{Label: "View Analytics", Path: AdminAnalysisPath},
			},
		}
	case domain.RoleRestaurantAdmin:
		return &Landing{
			Title:   "Welcome, Restaurant Admin!",
			Message: "Manage your restaurant's menu, orders, and reviews.",
			Links: []LandingLink{
				{Label: "Go to Dashboard", Path: ResAdminPath},
				{Label: "Manage Menu", Path: ResAdminMenuPath},
			},
		}
	default:
		return &Landing{
			Title:   "Boost Cafe!",
			Message: "Delicious, Healthy, and Organic food for everyone!",
			Links: []LandingLink{
				{Label: "Admin Login", Path: AdminLoginPath},
				{Label: "Restaurant Login", Path: ResAdminLoginPath},
			},
		}
	}
}

// PagesHandler serves the public pages and the role dashboards.
type PagesHandler struct {
	owners repository.OwnerRepository
}

// NewPagesHandler constructs handler.
func NewPagesHandler(owners repository.OwnerRepository) *PagesHandler {
	return &PagesHandler{owners: owners}
}

// Home handles GET /. While the session is loading the landing is null and
// the client shows a placeholder.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	st := auth.StateFromContext(c)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"page":    "home",
			"session": dto.NewIdentityResponse(st),
			"landing": LandingFor(st),
		},
	})
}

// Unauthorized handles GET /unauthorized.
func (h *PagesHandler) Unauthorized(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"page":    "unauthorized",
			"message": "You do not have access to this page.",
		},
	})
}

// Login returns the handler for a sign-in entry point. Both post an ID token
// to /auth/session and differ only in where they land afterwards.
func (h *PagesHandler) Login(page, landing string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"page":    page,
				"sign_in": "/auth/session",
				"landing": landing,
			},
		})
	}
}

// Page returns the handler for a guarded path.
func (h *PagesHandler) Page(p string) fiber.Handler {
	switch p {
	case AdminPath:
		return h.AdminDashboard
	case ResAdminPath:
		return h.RestaurantDashboard
	case ResAdminProfilePath:
		return h.RestaurantProfile
	default:
		return h.section(path.Base(p))
	}
}

// AdminDashboard handles GET /admin with the most recent restaurants.
func (h *PagesHandler) AdminDashboard(c *fiber.Ctx) error {
	st := auth.StateFromContext(c)
	restaurants, err := h.owners.List(c.UserContext(), c.QueryInt("limit", recentRestaurants))
	if err != nil {
		return apperrors.NewServiceUnavailable("restaurant directory unavailable", err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"page":        "admin",
			"identity":    st.Identity,
			"restaurants": restaurants,
			"count":       len(restaurants),
		},
	})
}

// RestaurantDashboard handles GET /res-admin.
func (h *PagesHandler) RestaurantDashboard(c *fiber.Ctx) error {
	st := auth.StateFromContext(c)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"page":       "res-admin",
			"identity":   st.Identity,
			"restaurant": profileOf(st),
		},
	})
}

// RestaurantProfile handles GET /res-admin/profile.
func (h *PagesHandler) RestaurantProfile(c *fiber.Ctx) error {
	profile := profileOf(auth.StateFromContext(c))
	if profile == nil {
		return apperrors.NewNotFound("restaurant profile not found", nil)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"page":       "profile",
			"restaurant": profile,
		},
	})
}

func (h *PagesHandler) section(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := auth.StateFromContext(c)
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"page": name,
				"role": st.Role(),
			},
		})
	}
}

func profileOf(st identity.State) *domain.OwnerRecord {
	if st.Identity == nil {
		return nil
	}
	return st.Identity.ProfileDetails
}
