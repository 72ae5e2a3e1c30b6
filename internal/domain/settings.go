package domain

type Settings struct {
	// Chemin du cookie jar (format NETSCAPE, exporté du navigateur).
	// Le coeur ne le parse pas: il est transmis tel quel à streamlink.
	CookieFile string `json:"cookieFile"`

	// Player externe et profil basse conso.
	Player      string `json:"player"`
	Quality     string `json:"quality"`
	LowResource bool   `json:"lowResource"`

	// Nombre de reconnexions streamlink au flux (--retry-streams).
	StreamRetries int `json:"streamRetries"`

	// Policy de relance du superviseur après sortie inattendue.
	RetryCount        int `json:"retryCount"`
	RetryDelaySeconds int `json:"retryDelaySeconds"`

	// Heure proposée par défaut quand on arme le scheduler.
	DefaultScheduleTime string `json:"defaultScheduleTime"`
}

func DefaultSettings() Settings {
	return Settings{
		CookieFile:          "cookies.txt",
		Player:              "mpv",
		Quality:             "best",
		LowResource:         false,
		StreamRetries:       5,
		RetryCount:          1,
		RetryDelaySeconds:   10,
		DefaultScheduleTime: "20:00",
	}
}
