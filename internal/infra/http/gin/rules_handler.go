package ginserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	rulesapp "rentcal/internal/app/handlers/rules"
	"rentcal/internal/app/queries"
	domainrules "rentcal/internal/domain/rules"
)

// maxCSVBytes bounds price import uploads.
const maxCSVBytes = 2 << 20

type RulesHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h RulesHandler) ListPriceRules(c *gin.Context) {
	if list, ok := h.list(c, domainrules.KindPrice); ok {
		c.JSON(http.StatusOK, dto.NewResults(list.PriceRules))
	}
}

func (h RulesHandler) ListClosures(c *gin.Context) {
	if list, ok := h.list(c, domainrules.KindClosure); ok {
		c.JSON(http.StatusOK, dto.NewResults(list.Closures))
	}
}

func (h RulesHandler) ListCheckInOut(c *gin.Context) {
	if list, ok := h.list(c, domainrules.KindCheckInOut); ok {
		c.JSON(http.StatusOK, dto.NewResults(list.CheckInOut))
	}
}

func (h RulesHandler) list(c *gin.Context, kind domainrules.Kind) (rulesapp.RuleList, bool) {
	q := rulesapp.ListRulesQuery{UnitID: c.Param("id"), Kind: string(kind)}
	result, err := queries.Ask[rulesapp.ListRulesQuery, rulesapp.RuleList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return rulesapp.RuleList{}, false
	}
	return result, true
}

func (h RulesHandler) CreatePriceRule(c *gin.Context) {
	var cmd rulesapp.CreatePriceRuleCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	cmd.UnitID = c.Param("id")
	cmd.IdempotencyKeyV = idempotencyKey(c)
	result, err := commands.Dispatch[rulesapp.CreatePriceRuleCommand, *dto.PriceRule](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h RulesHandler) CreateClosure(c *gin.Context) {
	var cmd rulesapp.CreateClosureCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	cmd.UnitID = c.Param("id")
	cmd.IdempotencyKeyV = idempotencyKey(c)
	result, err := commands.Dispatch[rulesapp.CreateClosureCommand, *dto.ClosureRule](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h RulesHandler) CreateCheckInOut(c *gin.Context) {
	var cmd rulesapp.CreateCheckInOutCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	cmd.UnitID = c.Param("id")
	cmd.IdempotencyKeyV = idempotencyKey(c)
	result, err := commands.Dispatch[rulesapp.CreateCheckInOutCommand, *dto.CheckInOutRule](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Delete accepts the kind in any of its route spellings (price, price-rules, price_rules).
func (h RulesHandler) Delete(c *gin.Context) {
	kind, ok := domainrules.ParseKind(c.Param("kind"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: fmt.Sprintf("unknown rule kind %q", c.Param("kind"))})
		return
	}
	cmd := rulesapp.DeleteRuleCommand{UnitID: c.Param("id"), Kind: string(kind), RuleID: c.Param("ruleID")}
	if _, err := commands.Dispatch[rulesapp.DeleteRuleCommand, *rulesapp.DeleteRuleResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type importPricesRequest struct {
	CSV       string `json:"csv"`
	Overwrite bool   `json:"overwrite"`
}

// ImportPrices takes the CSV as a multipart "file" field, a raw text/csv
// body, or JSON {"csv": "...", "overwrite": true}.
func (h RulesHandler) ImportPrices(c *gin.Context) {
	req, err := readImportRequest(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := rulesapp.ImportPricesCommand{UnitID: c.Param("id"), CSV: req.CSV, Overwrite: req.Overwrite}
	result, err := commands.Dispatch[rulesapp.ImportPricesCommand, *rulesapp.ImportPricesResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func readImportRequest(c *gin.Context) (importPricesRequest, error) {
	req := importPricesRequest{Overwrite: queryBool(c, "overwrite")}
	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/"):
		header, err := c.FormFile("file")
		if err != nil {
			return req, fmt.Errorf("multipart field \"file\": %w", err)
		}
		f, err := header.Open()
		if err != nil {
			return req, err
		}
		defer f.Close()
		raw, err := readLimited(f)
		if err != nil {
			return req, err
		}
		req.CSV = raw
		if v := c.PostForm("overwrite"); v != "" {
			req.Overwrite = v == "true" || v == "1"
		}
	case contentType == "application/json":
		var body importPricesRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			return req, err
		}
		req.CSV = body.CSV
		req.Overwrite = req.Overwrite || body.Overwrite
	default:
		raw, err := readLimited(c.Request.Body)
		if err != nil {
			return req, err
		}
		req.CSV = raw
	}
	if strings.TrimSpace(req.CSV) == "" {
		return req, errors.New("csv content is empty")
	}
	return req, nil
}

func readLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxCSVBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxCSVBytes {
		return "", fmt.Errorf("csv exceeds %d bytes", maxCSVBytes)
	}
	return string(data), nil
}

var _ RulesHTTP = RulesHandler{}
