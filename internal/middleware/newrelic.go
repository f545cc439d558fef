package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// ErrorReportingMiddleware reports handler errors attached with c.Error to
// the New Relic transaction started by nrgin. Without a transaction it does
// nothing.
func ErrorReportingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		txn.AddAttribute("http.route", c.FullPath())
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
