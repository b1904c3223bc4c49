package spotify

// Token holds the credentials returned by the accounts token endpoint.
//
// RefreshToken is only present on the initial authorization-code
// exchange; refresh responses may omit it, in which case the previously
// issued refresh token remains valid.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// User represents a Spotify user profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album represents a Spotify album. Tracks are only populated by
// endpoints that return full album objects (GET /albums).
type Album struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

// Track represents a Spotify track. PreviewURL is empty when the track
// has no playable 30-second preview clip.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url"`
}
