package errs

import "github.com/gin-gonic/gin"

// JSON writes the error as the standard response body. Handlers call this
// instead of building gin.H by hand so every surface reports the same shape.
func JSON(c *gin.Context, err error) {
	body := gin.H{
		"error": err.Error(),
		"kind":  string(KindOf(err)),
	}
	if sub := SubreasonOf(err); sub != "" {
		body["reason"] = sub
	}
	if field := FieldOf(err); field != "" {
		body["field"] = field
	}
	c.JSON(HTTPStatus(err), body)
}
