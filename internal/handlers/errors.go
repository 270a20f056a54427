// internal/handlers/errors.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/media-ledger/internal/i18n"
	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

var statusByKind = map[services.ErrorKind]int{
	services.KindNotFound:           http.StatusNotFound,
	services.KindUnauthorized:       http.StatusForbidden,
	services.KindInvalidInput:       http.StatusBadRequest,
	services.KindStateConflict:      http.StatusConflict,
	services.KindTransferFailed:     http.StatusPaymentRequired,
	services.KindReentrant:          http.StatusConflict,
	services.KindArithmeticOverflow: http.StatusUnprocessableEntity,
}

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	if status, ok := statusByKind[services.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err using the ledger error code. The message is
// localized when a translation exists and the wrapped error text is
// returned as details.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	le, ok := services.AsLedgerError(err)
	if !ok {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.Error(err)
		utils.InternalErrorResponse(c, "")
		return
	}

	message := le.Message
	if key := i18n.ErrorKey(le.Code); i18n.Has(lang, key) {
		message = i18n.T(lang, key)
	}

	var details interface{}
	if err.Error() != le.Message {
		details = err.Error()
	}
	c.Error(err)
	utils.ErrorResponse(c, StatusOf(err), le.Code, message, details)
}

// caller returns the authenticated account, writing a 401 when missing.
func caller(c *gin.Context) (string, bool) {
	account, ok := utils.GetAccountIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return "", false
	}
	return account, true
}

// parseID reads a numeric path parameter, writing a 400 when malformed.
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyRequestInvalidID), c.Param(name))
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the request body.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyRequestInvalidBody), err.Error())
		return false
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}
