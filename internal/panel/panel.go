package panel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"guildwarden/internal/config"
	"guildwarden/internal/storage"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionName     = "warden_session"
	sessionUserID   = "user_id"
	sessionUsername = "username"
	sessionState    = "oauth_state"
	sessionGuilds   = "guilds"
)

// Server is the web admin panel. It talks to the same database as the
// bot; the bot picks configuration changes up on the next read.
type Server struct {
	cfg    config.Config
	store  *storage.Store
	logger *zap.Logger
	http   *http.Server
}

func New(cfg config.Config, store *storage.Store, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}

	cookieStore := cookie.NewStore([]byte(cfg.Panel.SessionSecret))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true})
	router.Use(sessions.Sessions(sessionName, cookieStore))

	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(templateFS, "templates/*.html")))

	router.GET("/", s.getIndex)
	router.GET("/login", s.getLogin)
	router.GET("/callback", s.getCallback)
	router.GET("/logout", s.getLogout)

	authed := router.Group("/", s.requireAuth)
	authed.GET("/guilds", s.getGuilds)

	guild := authed.Group("/guild/:id", s.requireGuildAccess)
	guild.GET("", s.getDashboard)
	guild.POST("/config", s.postConfig)
	guild.POST("/toggles", s.postToggles)
	guild.POST("/filters/add", s.postFilterAdd)
	guild.POST("/filters/delete", s.postFilterDelete)
	guild.POST("/snippets", s.postSnippet)
	guild.POST("/snippets/delete", s.postSnippetDelete)
	guild.POST("/reasons", s.postReason)
	guild.POST("/reasons/delete", s.postReasonDelete)
	guild.GET("/logs", s.getLogs)
	guild.GET("/transcript/:ticket", s.getTranscript)

	s.http = &http.Server{Addr: cfg.Panel.Addr, Handler: router}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("panel listening", zap.String("addr", s.cfg.Panel.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) getIndex(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get(sessionUserID) != nil {
		c.Redirect(http.StatusFound, "/guilds")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (s *Server) getLogin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.String(http.StatusInternalServerError, "login failed")
		return
	}
	session := sessions.Default(c)
	session.Set(sessionState, state)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "login failed")
		return
	}
	c.Redirect(http.StatusFound, newOAuthConfig(s.cfg.Panel).AuthCodeURL(state))
}

func (s *Server) getCallback(c *gin.Context) {
	session := sessions.Default(c)
	wantState, _ := session.Get(sessionState).(string)
	if wantState == "" || c.Query("state") != wantState {
		c.String(http.StatusBadRequest, "state mismatch")
		return
	}
	session.Delete(sessionState)

	ctx := c.Request.Context()
	oauthCfg := newOAuthConfig(s.cfg.Panel)
	token, err := oauthCfg.Exchange(ctx, c.Query("code"))
	if err != nil {
		s.logger.Warn("oauth exchange failed", zap.Error(err))
		c.String(http.StatusBadGateway, "authorization failed")
		return
	}

	client := oauthCfg.Client(ctx, token)
	user, err := fetchIdentity(ctx, client)
	if err != nil {
		s.logger.Warn("identity fetch failed", zap.Error(err))
		c.String(http.StatusBadGateway, "authorization failed")
		return
	}
	guilds, err := fetchGuilds(ctx, client)
	if err != nil {
		s.logger.Warn("guild fetch failed", zap.Error(err))
		c.String(http.StatusBadGateway, "authorization failed")
		return
	}

	manageable := manageableGuilds(guilds)
	encoded, err := json.Marshal(manageable)
	if err != nil {
		c.String(http.StatusInternalServerError, "session error")
		return
	}

	session.Set(sessionUserID, user.ID)
	session.Set(sessionUsername, user.Username)
	session.Set(sessionGuilds, string(encoded))
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "session error")
		return
	}

	s.logger.Info("panel login", zap.String("user_id", user.ID), zap.Int("manageable_guilds", len(manageable)))
	c.Redirect(http.StatusFound, "/guilds")
}

func (s *Server) getLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) requireAuth(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get(sessionUserID) == nil {
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) sessionGuildList(c *gin.Context) []discordGuild {
	session := sessions.Default(c)
	raw, _ := session.Get(sessionGuilds).(string)
	if raw == "" {
		return nil
	}
	var guilds []discordGuild
	if err := json.Unmarshal([]byte(raw), &guilds); err != nil {
		return nil
	}
	return guilds
}

// requireGuildAccess checks that the guild is one the user manages AND
// that the bot is in it. A guild_config row exists exactly when the bot
// has seen the guild.
func (s *Server) requireGuildAccess(c *gin.Context) {
	guildID := c.Param("id")
	for _, guild := range s.sessionGuildList(c) {
		if guild.ID != guildID {
			continue
		}
		cfg, err := s.store.GetGuildConfig(c.Request.Context(), guildID)
		if err != nil || cfg == nil {
			break
		}
		c.Set("guild_name", guild.Name)
		c.Next()
		return
	}
	c.String(http.StatusForbidden, "no access to this guild")
	c.Abort()
}

type guildListEntry struct {
	ID      string
	Name    string
	Managed bool
}

func (s *Server) getGuilds(c *gin.Context) {
	session := sessions.Default(c)
	username, _ := session.Get(sessionUsername).(string)

	var entries []guildListEntry
	for _, guild := range s.sessionGuildList(c) {
		cfg, err := s.store.GetGuildConfig(c.Request.Context(), guild.ID)
		entries = append(entries, guildListEntry{
			ID:      guild.ID,
			Name:    guild.Name,
			Managed: err == nil && cfg != nil,
		})
	}
	c.HTML(http.StatusOK, "guilds.html", gin.H{
		"Username": username,
		"Guilds":   entries,
	})
}

func (s *Server) getDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := c.Param("id")

	cfg, err := s.store.GetOrDefaultGuildConfig(ctx, guildID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	filters, err := s.store.ListWordFilters(ctx, guildID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	snippets, err := s.store.ListSnippets(ctx, guildID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	stats, err := s.store.TicketStats(ctx, guildID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	transcripts, err := s.store.ListTranscripts(ctx, guildID, 20)
	if err != nil {
		s.renderError(c, err)
		return
	}
	logs, err := s.store.RecentServerLogs(ctx, guildID, 25)
	if err != nil {
		s.renderError(c, err)
		return
	}
	reasons, err := s.store.ListTicketReasons(ctx, guildID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"GuildID":     guildID,
		"GuildName":   c.GetString("guild_name"),
		"Config":      cfg,
		"Filters":     filters,
		"Snippets":    snippets,
		"Reasons":     reasons,
		"Stats":       stats,
		"Transcripts": transcripts,
		"Logs":        logs,
		"Saved":       c.Query("saved") == "1",
		"Duplicate":   c.Query("error") == "duplicate",
	})
}

func (s *Server) renderError(c *gin.Context, err error) {
	s.logger.Warn("panel request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.String(http.StatusInternalServerError, "something went wrong")
}

func (s *Server) redirectDashboard(c *gin.Context) {
	c.Redirect(http.StatusFound, fmt.Sprintf("/guild/%s?saved=1", c.Param("id")))
}

func (s *Server) postConfig(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := c.Param("id")

	cfg, err := s.store.GetOrDefaultGuildConfig(ctx, guildID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	cfg.TicketCategoryID = CleanSnowflake(c.PostForm("ticket_category_id"))
	cfg.TranscriptChannelID = CleanSnowflake(c.PostForm("transcript_channel_id"))
	cfg.LogChannelID = CleanSnowflake(c.PostForm("log_channel_id"))
	cfg.ModLogChannelID = CleanSnowflake(c.PostForm("mod_log_channel_id"))
	cfg.MessageLogChannelID = CleanSnowflake(c.PostForm("message_log_channel_id"))
	cfg.MemberLogChannelID = CleanSnowflake(c.PostForm("member_log_channel_id"))
	cfg.VoiceLogChannelID = CleanSnowflake(c.PostForm("voice_log_channel_id"))
	cfg.ModRoleID = CleanSnowflake(c.PostForm("mod_role_id"))
	cfg.AdminRoleID = CleanSnowflake(c.PostForm("admin_role_id"))

	if err := s.store.UpsertGuildConfig(ctx, cfg); err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) postToggles(c *gin.Context) {
	ctx := c.Request.Context()
	guildID := c.Param("id")

	cfg, err := s.store.GetOrDefaultGuildConfig(ctx, guildID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	cfg.LogMessageEdits = ToggleValue(c.PostForm("log_message_edits"))
	cfg.LogMessageDeletions = ToggleValue(c.PostForm("log_message_deletions"))
	cfg.LogMemberJoins = ToggleValue(c.PostForm("log_member_joins"))
	cfg.LogMemberLeaves = ToggleValue(c.PostForm("log_member_leaves"))
	cfg.LogVoiceUpdates = ToggleValue(c.PostForm("log_voice_updates"))
	cfg.AutomodInviteLinks = ToggleValue(c.PostForm("automod_invite_links"))

	if err := s.store.UpsertGuildConfig(ctx, cfg); err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) postFilterAdd(c *gin.Context) {
	phrase := c.PostForm("phrase")
	if phrase == "" {
		s.redirectDashboard(c)
		return
	}
	added, err := s.store.AddWordFilter(c.Request.Context(), c.Param("id"), phrase)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if !added {
		c.Redirect(http.StatusFound, fmt.Sprintf("/guild/%s?error=duplicate", c.Param("id")))
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) postFilterDelete(c *gin.Context) {
	phrase := c.PostForm("phrase")
	if _, err := s.store.RemoveWordFilter(c.Request.Context(), c.Param("id"), phrase); err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) postSnippet(c *gin.Context) {
	name := c.PostForm("name")
	content := c.PostForm("content")
	if name == "" || content == "" {
		s.redirectDashboard(c)
		return
	}

	payload, err := json.Marshal(map[string]string{"title": name, "description": content})
	if err != nil {
		s.renderError(c, err)
		return
	}
	err = s.store.UpsertSnippet(c.Request.Context(), storage.Snippet{
		GuildID:  c.Param("id"),
		Name:     name,
		Category: c.PostForm("category"),
		Content:  string(payload),
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) postSnippetDelete(c *gin.Context) {
	if _, err := s.store.DeleteSnippet(c.Request.Context(), c.Param("id"), c.PostForm("name")); err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) postReason(c *gin.Context) {
	label := c.PostForm("label")
	if label == "" {
		s.redirectDashboard(c)
		return
	}
	_, err := s.store.CreateTicketReason(c.Request.Context(), storage.TicketReason{
		GuildID:     c.Param("id"),
		Label:       label,
		CategoryID:  CleanSnowflake(c.PostForm("category_id")),
		Description: c.PostForm("description"),
		Emoji:       c.PostForm("emoji"),
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) postReasonDelete(c *gin.Context) {
	id, err := strconv.ParseInt(c.PostForm("reason_id"), 10, 64)
	if err != nil {
		s.redirectDashboard(c)
		return
	}
	if _, err := s.store.DeleteTicketReason(c.Request.Context(), c.Param("id"), id); err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectDashboard(c)
}

func (s *Server) getLogs(c *gin.Context) {
	logs, err := s.store.RecentServerLogs(c.Request.Context(), c.Param("id"), 200)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "logs.html", gin.H{
		"GuildID":   c.Param("id"),
		"GuildName": c.GetString("guild_name"),
		"Logs":      logs,
	})
}

func (s *Server) getTranscript(c *gin.Context) {
	ticketID, err := strconv.ParseInt(c.Param("ticket"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad ticket id")
		return
	}
	ticket, err := s.store.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if ticket == nil || ticket.GuildID != c.Param("id") || ticket.Transcript == nil {
		c.String(http.StatusNotFound, "no transcript")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(*ticket.Transcript))
}
