package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type rotation struct {
	Contacts []contact `json:"contacts"`
	Current  struct {
		PrimaryIndex int     `json:"primary_index"`
		BackupIndex  int     `json:"backup_index"`
		Primary      contact `json:"primary"`
		Backup       contact `json:"backup"`
	} `json:"current"`
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	req, _ := http.NewRequest(http.MethodGet, api+"/api/rotation", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Println("API returned status:", resp.Status)
		return
	}
	var rot rotation
	if err := json.NewDecoder(resp.Body).Decode(&rot); err != nil {
		fmt.Println("Bad response:", err)
		return
	}
	for i, c := range rot.Contacts {
		fmt.Printf("%d. %s\t%s\n", i, c.Phone, c.Email)
	}
	fmt.Printf("Primary: %s (%s)\n", rot.Current.Primary.Email, rot.Current.Primary.Phone)
	fmt.Printf("Backup:  %s (%s)\n", rot.Current.Backup.Email, rot.Current.Backup.Phone)

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Page someone? Enter offset (0 = primary, 1 = backup) or leave empty: ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		fmt.Println("Invalid offset.")
		return
	}
	fmt.Print("Message (empty for default): ")
	msg, _ := reader.ReadString('\n')

	body, _ := json.Marshal(map[string]any{"offset": offset, "message": strings.TrimSpace(msg)})
	req, _ = http.NewRequest(http.MethodPost, api+"/api/page", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	presp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer presp.Body.Close()
	if presp.StatusCode >= 200 && presp.StatusCode < 300 {
		fmt.Println("Paged. Check the pager logs for delivery.")
	} else {
		fmt.Println("API returned status:", presp.Status)
	}
}
