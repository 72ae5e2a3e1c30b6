// Package cookies valide un cookie jar au format NETSCAPE avant lancement.
// Streamlink consomme le fichier lui-même; on ne fait ici qu'un preflight
// pour diagnostiquer les cookies absents ou expirés (cause n°1 des sorties
// en code 1 sans stderr).
package cookies

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Cookie struct {
	Domain  string
	Path    string
	Secure  bool
	Expires time.Time // zéro = cookie de session
	Name    string
	Value   string
}

// IsExpired: un cookie de session n'expire pas côté fichier.
func (c Cookie) IsExpired(now time.Time) bool {
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

type Report struct {
	Path    string   `json:"path"`
	Count   int      `json:"count"`
	Expired int      `json:"expired"`
	// HasTwitchAuth: présence d'un auth-token twitch.tv non expiré.
	HasTwitchAuth bool     `json:"hasTwitchAuth"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ParseFile lit un jar NETSCAPE: 7 champs séparés par des tabs, lignes de
// commentaire en #, préfixe #HttpOnly_ toléré sur le domaine.
func ParseFile(path string) ([]Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Cookie
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		httpOnly := strings.HasPrefix(trimmed, "#HttpOnly_")
		if strings.HasPrefix(trimmed, "#") && !httpOnly {
			continue
		}
		if httpOnly {
			raw = strings.TrimPrefix(raw, "#HttpOnly_")
		}

		fields := strings.Split(raw, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("line %d: expected 7 tab-separated fields, got %d", line, len(fields))
		}

		c := Cookie{
			Domain: fields[0],
			Path:   fields[2],
			Secure: strings.EqualFold(fields[3], "TRUE"),
			Name:   fields[5],
			Value:  fields[6],
		}
		if epoch, err := strconv.ParseInt(fields[4], 10, 64); err == nil && epoch > 0 {
			c.Expires = time.Unix(epoch, 0).UTC()
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Check produit le rapport de preflight pour le fichier donné.
func Check(path string, now time.Time) (Report, error) {
	rep := Report{Path: path}

	jar, err := ParseFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			rep.Warnings = append(rep.Warnings, "cookie file not found")
			return rep, nil
		}
		return Report{}, err
	}

	rep.Count = len(jar)
	for _, c := range jar {
		if c.IsExpired(now) {
			rep.Expired++
		}
		if c.Name == "auth-token" && strings.Contains(c.Domain, "twitch.tv") {
			if c.IsExpired(now) {
				rep.Warnings = append(rep.Warnings, "twitch auth-token cookie is expired, re-export cookies from your browser")
			} else {
				rep.HasTwitchAuth = true
			}
		}
	}

	if rep.Count == 0 {
		rep.Warnings = append(rep.Warnings, "cookie file is empty")
	} else if !rep.HasTwitchAuth {
		if len(rep.Warnings) == 0 {
			rep.Warnings = append(rep.Warnings, "no twitch.tv auth-token cookie found, subscriber-only streams will not work")
		}
	}
	return rep, nil
}
