package panel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"guildwarden/internal/config"

	"golang.org/x/oauth2"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

const discordAPI = "https://discord.com/api/v10"

func newOAuthConfig(cfg config.PanelConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"identify", "guilds"},
		Endpoint:     discordEndpoint,
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type discordGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Permissions string `json:"permissions"`
}

func apiGet(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordAPI+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord api %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fetchIdentity(ctx context.Context, client *http.Client) (*discordUser, error) {
	var user discordUser
	if err := apiGet(ctx, client, "/users/@me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func fetchGuilds(ctx context.Context, client *http.Client) ([]discordGuild, error) {
	var guilds []discordGuild
	if err := apiGet(ctx, client, "/users/@me/guilds", &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// manageableGuilds keeps the guilds the user can administer.
func manageableGuilds(guilds []discordGuild) []discordGuild {
	var out []discordGuild
	for _, guild := range guilds {
		if HasManagePermission(guild.Permissions) {
			out = append(out, guild)
		}
	}
	return out
}
