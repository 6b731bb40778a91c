// Command smoke drives a running plantcare server through identify, add and list.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Server base URL")
	imagePath := flag.String("image", "", "Plant photo to upload")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: smoke -image <photo> [-url http://localhost:8080]")
		os.Exit(2)
	}
	image, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Printf("Error reading image: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Starting smoke test...")

	// 1. Identify
	fmt.Println("1. Identifying plant...")
	body, contentType, err := imageForm(filepath.Base(*imagePath), image)
	if err != nil {
		fmt.Printf("Error building upload: %v\n", err)
		os.Exit(1)
	}
	result, ok := sendRequest(http.MethodPost, *baseURL+"/identifications", contentType, body, http.StatusOK)
	if !ok {
		fmt.Println("FAILED: Identify")
		os.Exit(1)
	}
	fmt.Println("PASSED: Identify")

	// 2. Add to plant list
	fmt.Println("2. Adding plant...")
	if _, ok := sendRequest(http.MethodPost, *baseURL+"/plants", "application/json", bytes.NewReader(result), http.StatusCreated); !ok {
		fmt.Println("FAILED: Add plant")
		os.Exit(1)
	}
	fmt.Println("PASSED: Add plant")

	// 3. List
	fmt.Println("3. Listing plants...")
	if _, ok := sendRequest(http.MethodGet, *baseURL+"/plants", "", nil, http.StatusOK); !ok {
		fmt.Println("FAILED: List plants")
		os.Exit(1)
	}
	fmt.Println("PASSED: List plants")
}

func imageForm(name string, image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func sendRequest(method, url, contentType string, body io.Reader, want int) ([]byte, bool) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// Identification waits on three remote services.
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, respBody, "", "  ") == nil {
		respBody = pretty.Bytes()
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return respBody, true
}
