package handlers

import (
	"draftdesk/apperrors"
	"draftdesk/config"
	"draftdesk/middleware"
	"draftdesk/services"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func Signup(c *gin.Context) {
	var input AuthInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, apperrors.Wrap(apperrors.CodeValidation, err, err.Error()))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		middleware.RespondError(c, apperrors.Wrap(apperrors.CodeInternal, err, "hashing password"))
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == middleware.SystemEmail {
		middleware.RespondError(c, apperrors.New(apperrors.CodeConflict, "email already registered"))
		return
	}
	user, err := services.CreateTrialUser(c.Request.Context(), email, string(hash), services.Resolver().Now())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	token, err := issueSession(c, user.ID, user.Email)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func Login(c *gin.Context) {
	var input AuthInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, apperrors.Wrap(apperrors.CodeValidation, err, err.Error()))
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	id, hash, err := services.FindCredentials(c.Request.Context(), email)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(input.Password)); err != nil {
		middleware.RespondError(c, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	token, err := issueSession(c, id, email)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me returns the account with its trial counters and this month's usage.
func Me(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	r := services.Resolver()
	usage, err := services.GetUsage(c.Request.Context(), user, r.Now())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	sub := user.Subscriber()
	plan := r.GetPlanFeatures(user.Plan)
	c.JSON(http.StatusOK, gin.H{
		"user":            user,
		"plan":            newPlanView(plan),
		"trial_expired":   r.IsTrialExpired(sub),
		"trial_days_left": r.GetDaysLeftInTrial(sub),
		"trial_day":       r.GetCurrentTrialDay(sub),
		"usage":           usage,
	})
}

func issueSession(c *gin.Context, userID, email string) (string, error) {
	cfg := config.Current()
	token, err := middleware.IssueToken(cfg.JWT, userID, email, services.Resolver().Now())
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "signing token")
	}
	maxAge := int(cfg.JWT.TTL().Seconds())
	c.SetCookie(cfg.JWT.CookieName, token, maxAge, "/", "", cfg.App.IsProd(), true)
	return token, nil
}
