package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CurrentBusinessDay reports the working date and settlement window of
// the current moment, mostly for operator tooling.
func (s *Server) CurrentBusinessDay(c *gin.Context) {
	now := time.Now()
	windowStart, windowEnd := s.calc.Window(now)

	c.JSON(http.StatusOK, gin.H{
		"business_day": s.calc.WorkingDate(now).String(),
		"window_start": windowStart,
		"window_end":   windowEnd,
	})
}
