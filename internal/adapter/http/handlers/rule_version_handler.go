package handlers

import (
	"net/http"
	"strconv"

	request "juragites_estimation/internal/adapter/http/dto/request"
	response "juragites_estimation/internal/adapter/http/dto/response"
	"juragites_estimation/internal/adapter/http/middleware"
	"juragites_estimation/internal/usecase"

	"github.com/gin-gonic/gin"
)

type RuleVersionHandler struct {
	usecase usecase.IRuleVersionUseCase
}

func NewRuleVersionHandler(uc usecase.IRuleVersionUseCase) *RuleVersionHandler {
	return &RuleVersionHandler{usecase: uc}
}

// Activate godoc
// @Summary      Publish and activate a new rule version
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        body  body      request.ActivateRuleVersionRequest  true  "Rule set"
// @Success      201   {object}  response.RuleVersionResponse
// @Failure      422   {object}  pkg.HTTPError
// @Router       /admin/rule-versions [post]
func (h *RuleVersionHandler) Activate(c *gin.Context) {
	var payload request.ActivateRuleVersionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}
	v, err := h.usecase.Activate(c.Request.Context(), middleware.CallerFrom(c), payload.RuleSet, payload.Description)
	if err != nil {
		writeError(c, "rules", err)
		return
	}
	c.JSON(http.StatusCreated, response.FromRuleVersion(v))
}

// List godoc
// @Summary      List rule versions, newest first
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  response.RuleVersionResponse
// @Router       /admin/rule-versions [get]
func (h *RuleVersionHandler) List(c *gin.Context) {
	list, err := h.usecase.List(c.Request.Context())
	if err != nil {
		writeError(c, "rules", err)
		return
	}
	c.JSON(http.StatusOK, response.FromRuleVersions(list))
}

// Active godoc
// @Summary      Get the active rule version
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Success      200  {object}  response.RuleVersionResponse
// @Router       /admin/rule-versions/active [get]
func (h *RuleVersionHandler) Active(c *gin.Context) {
	v, err := h.usecase.GetActive(c.Request.Context())
	if err != nil {
		writeError(c, "rules", err)
		return
	}
	c.JSON(http.StatusOK, response.FromRuleVersion(v))
}

// Get godoc
// @Summary      Get a rule version by number
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Param        number  path      int  true  "Version number"
// @Success      200     {object}  response.RuleVersionResponse
// @Failure      404     {object}  pkg.HTTPError
// @Router       /admin/rule-versions/{number} [get]
func (h *RuleVersionHandler) Get(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}
	v, err := h.usecase.GetByNumber(c.Request.Context(), n)
	if err != nil {
		writeError(c, "rules", err)
		return
	}
	c.JSON(http.StatusOK, response.FromRuleVersion(v))
}
