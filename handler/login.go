package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ezymap/db"
	"ezymap/model"
	"ezymap/utils"
)

const (
	tokenIssuer = "ezymap"

	ctxUserID = "user_id"
	ctxEmail  = "email"
)

// Claims JWT 载荷
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	UserType string `json:"user_type" binding:"omitempty,oneof=traveler admin"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
	Message   string      `json:"message"`
}

// Register 用户注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	// 加密密码
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "密码加密失败")
		return
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		UserType:     req.UserType,
	}
	if err := h.Users.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, db.ErrUserExists) {
			errorResponse(c, http.StatusConflict, "邮箱已被注册")
			return
		}
		log.WithField("prefix", "auth").Errorf("create user failed: %v", err)
		errorResponse(c, http.StatusInternalServerError, "注册失败")
		return
	}

	log.WithField("prefix", "auth").WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, gin.H{
		"message": "注册成功",
		"user":    user,
	})
}

// Login 处理用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	user, err := h.Users.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, db.ErrUserNotFound) {
		errorResponse(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}
	if err != nil {
		log.WithField("prefix", "auth").Errorf("get user failed: %v", err)
		errorResponse(c, http.StatusInternalServerError, "登录失败")
		return
	}

	// 验证密码
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		errorResponse(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	tokenString, expiresAt, err := h.issueToken(user)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "生成 Token 失败")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      user,
		Message:   "登录成功",
	})
}

// Me 当前登录用户信息，Token 对应的用户已被删除时返回 401
func (h *Handler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}

	user, err := h.Users.GetUserByID(c.Request.Context(), userID)
	if errors.Is(err, db.ErrUserNotFound) {
		errorResponse(c, http.StatusUnauthorized, "用户不存在")
		return
	}
	if err != nil {
		log.WithField("prefix", "auth").Errorf("get user failed: %v", err)
		errorResponse(c, http.StatusInternalServerError, "读取用户信息失败")
		return
	}

	c.JSON(http.StatusOK, user)
}

// issueToken 生成 HS256 JWT
func (h *Handler) issueToken(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(h.tokenTTL)
	claims := &Claims{
		UserID:   user.ID.String(),
		Email:    user.Email,
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.jwtSecret)
	return signed, expiresAt, err
}

// parseToken 校验 Authorization 头中的 Token
func (h *Handler) parseToken(header string) (*Claims, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, err
	}
	return claims, nil
}

// AuthMiddleware JWT 认证中间件
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			errorResponse(c, http.StatusUnauthorized, "未提供 Token")
			return
		}

		claims, err := h.parseToken(header)
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, "无效的 Token")
			return
		}

		// 将用户信息存入上下文
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuth 有 Token 时解析用户信息，没有时按匿名用户处理
func (h *Handler) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		claims, err := h.parseToken(header)
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, "无效的 Token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// currentUserID 读取中间件写入的用户 ID
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ctxUserID)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
