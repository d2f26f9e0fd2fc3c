package utils

import (
	"fmt"
	"strconv"
	"strings"

	"template-mailer/internal/errors"

	"github.com/gin-gonic/gin"
)

// ParseID accepts a decimal integer, optionally surrounded by spaces. An
// integral float such as "12.0" is accepted too.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return int64(f), nil
}

// GetIDParam parses the :id route parameter.
func GetIDParam(c *gin.Context) (int64, error) {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return 0, errors.InvalidID("invalid template id", err)
	}
	return id, nil
}
