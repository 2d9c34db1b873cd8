// Command initdata seeds a running server with demo providers through the
// public API: register, log in, fill the profile, add a work section and
// like a few peers.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL  = flag.String("url", env("API_BASE_URL", "http://localhost:3000"), "Server base URL")
	pass     = flag.String("pass", env("PASSWORD", "Password123"), "Password for every seeded user")
	nUsers   = flag.Int("n", envInt("COUNT", 40), "How many providers to create")
	maxLikes = flag.Int("likes", envInt("LIKES", 5), "Upper bound of likes each provider gives")
)

var professions = []string{
	"plumber", "electrician", "carpenter", "painter", "photographer",
	"tutor", "gardener", "mechanic", "tailor", "makeup artist",
}

// a small set of places so same-city and same-country searches find peers
var places = []struct{ city, country string }{
	{"Pune", "India"}, {"Mumbai", "India"}, {"Lyon", "France"},
	{"Paris", "France"}, {"Austin", "USA"},
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil && i > 0 {
		return i
	}
	return def
}

type apiClient struct {
	base string
	http *http.Client
}

// call sends body as JSON and decodes a 2xx response into out.
func (c *apiClient) call(method, path, token string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, c.base+"/api/user"+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, data)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

type seeded struct {
	id    string
	token string
}

func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	c := &apiClient{base: *baseURL, http: &http.Client{Timeout: 10 * time.Second}}
	fmt.Printf("Seeding %d providers on %s\n", *nUsers, *baseURL)

	var all []seeded
	for i := 1; i <= *nUsers; i++ {
		s, err := seedProvider(c)
		if err != nil {
			fmt.Fprintln(os.Stderr, "FATAL:", err)
			os.Exit(1)
		}
		all = append(all, s)
		if i%10 == 0 || i == *nUsers {
			fmt.Printf("  … %d/%d\n", i, *nUsers)
		}
	}

	likes := 0
	for _, s := range all {
		for j := 0; j < gofakeit.Number(0, *maxLikes); j++ {
			target := all[gofakeit.Number(0, len(all)-1)]
			if target.id == s.id {
				continue
			}
			if err := c.call(http.MethodPut, "/like/"+target.id, s.token, nil, nil); err != nil {
				fmt.Fprintln(os.Stderr, "like:", err)
				continue
			}
			likes++
		}
	}

	fmt.Printf("✔ done: %d providers, %d like toggles\n", len(all), likes)
}

func seedProvider(c *apiClient) (seeded, error) {
	name := nonAlnum.ReplaceAllString(gofakeit.FirstName(), "") + gofakeit.Numerify("####")
	email := fmt.Sprintf("%s@example.com", name)

	if err := c.call(http.MethodPost, "/register", "", map[string]string{
		"name": name, "email": email, "password": *pass,
	}, nil); err != nil {
		return seeded{}, err
	}

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"_id"`
		} `json:"user"`
	}
	if err := c.call(http.MethodPost, "/login", "", map[string]string{"email": email, "password": *pass}, &login); err != nil {
		return seeded{}, err
	}

	profession := gofakeit.RandomString(professions)
	place := places[gofakeit.Number(0, len(places)-1)]
	profile := map[string]any{
		"profession": profession,
		"bio":        gofakeit.Paragraph(1, 2, 20, " "),
		"location":   gofakeit.Street(),
		"city":       place.city,
		"country":    place.country,
		"timing":     "Mon-Fri 9-18",
		"contact":    gofakeit.Phone(),
		"fee":        gofakeit.Price(100, 2000),
	}
	if err := c.call(http.MethodPut, "/update/"+login.User.ID, login.Token, profile, nil); err != nil {
		return seeded{}, err
	}

	section := map[string]any{
		"title":       gofakeit.Sentence(3),
		"description": gofakeit.Paragraph(1, 3, 25, " "),
	}
	if err := c.call(http.MethodPost, "/upload/"+login.User.ID, login.Token, section, nil); err != nil {
		return seeded{}, err
	}

	return seeded{id: login.User.ID, token: login.Token}, nil
}
