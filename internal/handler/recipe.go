package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/repository"
)

// RecipeHandler serves fish recipes.  Reads are public; mutations are
// admin-only.
type RecipeHandler struct {
	Recipes *repository.RecipeRepo
}

func NewRecipeHandler(recipes *repository.RecipeRepo) *RecipeHandler {
	return &RecipeHandler{Recipes: recipes}
}

type recipeCreateReq struct {
	FishName     string  `json:"fish_name"`
	Title        string  `json:"title"`
	ImageURL     *string `json:"image_url"`
	Ingredients  string  `json:"ingredients"`
	Instructions string  `json:"instructions"`
}

type recipeUpdateReq struct {
	FishName     *string `json:"fish_name"`
	Title        *string `json:"title"`
	ImageURL     *string `json:"image_url"`
	Ingredients  *string `json:"ingredients"`
	Instructions *string `json:"instructions"`
}

// List returns all recipes, or those for one species via ?fish_name.
func (h *RecipeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		recipes []model.Recipe
		err     error
	)
	if fishName := strings.TrimSpace(c.QueryParam("fish_name")); fishName != "" {
		recipes, err = h.Recipes.ListByFishName(ctx, fishName)
	} else {
		recipes, err = h.Recipes.ListAll(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"recipes": recipes})
}

// FishNames returns the distinct species that have at least one recipe.
func (h *RecipeHandler) FishNames(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	names, err := h.Recipes.FishNames(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fish_names": names})
}

func (h *RecipeHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid recipe id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecipeHandler) Create(c echo.Context) error {
	var req recipeCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FishName = strings.TrimSpace(req.FishName)
	req.Title = strings.TrimSpace(req.Title)
	if req.FishName == "" || req.Title == "" || req.Ingredients == "" || req.Instructions == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fish_name, title, ingredients and instructions are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Recipes.Create(ctx, model.Recipe{
		FishName:     req.FishName,
		Title:        req.Title,
		ImageURL:     req.ImageURL,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create recipe failed"})
	}
	rec, err := h.Recipes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *RecipeHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid recipe id"})
	}

	var req recipeUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FishName == nil && req.Title == nil && req.ImageURL == nil && req.Ingredients == nil && req.Instructions == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Recipes.Update(ctx, id, req.FishName, req.Title, req.ImageURL, req.Ingredients, req.Instructions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update recipe failed"})
	}
	rec, err := h.Recipes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"msg": "recipe updated"})
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecipeHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid recipe id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete recipe failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "recipe deleted"})
}
