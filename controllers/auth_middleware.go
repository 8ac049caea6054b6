package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	dbpkg "wemind/db"
	"wemind/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ctxUserKey = "auth_user"

// AuthRequired valida o Bearer token (HS256, emitido pelo colaborador de
// autenticação externo) e carrega o usuário do banco no contexto.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		token := strings.TrimSpace(h[len("Bearer "):])

		userID, ok := VerifyToken(token)
		if !ok {
			RespondError(c, "invalid token", http.StatusUnauthorized)
			c.Abort()
			return
		}

		db := dbpkg.DBInstance(c)
		if db == nil {
			RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
			c.Abort()
			return
		}
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			RespondError(c, "user not found", http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// GetUserLogged returns the user loaded by AuthRequired.
func GetUserLogged(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// VerifyToken valida assinatura e expiração e extrai o user id do "sub".
// Aceita sub numérico ou string numérica (emissores variam).
func VerifyToken(token string) (int64, bool) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Security.JwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	switch sub := claims["sub"].(type) {
	case float64:
		if sub > 0 {
			return int64(sub), true
		}
	case string:
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}
