package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

// User represents the structure of a user document to insert
type User struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

type loadOptions struct {
	serverURL  string
	collection string
	actor      string
	batchSize  int
	workers    int
}

// generateRandomName generates a random 6-letter name
func generateRandomName(r *rand.Rand) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	name := make([]byte, 6)
	for i := range name {
		name[i] = letters[r.Intn(len(letters))]
	}
	// Capitalize first letter
	name[0] = name[0] - 32
	return string(name)
}

func generateUser(r *rand.Rand) User {
	name := generateRandomName(r)
	return User{
		Name:  name,
		Age:   r.Intn(82) + 18, // 18 to 99
		Email: fmt.Sprintf("%s@example.com", strings.ToLower(name)),
	}
}

func post(client *http.Client, url, actor string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// insertUsers sends one create request, or one batch request when more than
// one user is given
func insertUsers(client *http.Client, o loadOptions, users []User) error {
	base := strings.TrimRight(o.serverURL, "/") + "/collections/" + o.collection + "/items"
	if len(users) == 1 {
		return post(client, base, o.actor, users[0])
	}
	return post(client, base+"/batch", o.actor, map[string]interface{}{"items": users})
}

func runLoad(numUsers int, o loadOptions) error {
	fmt.Printf("Starting load test: inserting %d users into %s at %s (batch %d, workers %d)\n",
		numUsers, o.collection, o.serverURL, o.batchSize, o.workers)
	fmt.Println("Press Ctrl+C to stop early")

	client := &http.Client{Timeout: 30 * time.Second}
	startTime := time.Now()

	var (
		done, successCount, errorCount atomic.Int64
		wg                             sync.WaitGroup
	)
	reportEvery := int64(max(1, numUsers/10))

	jobs := make(chan int)
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for size := range jobs {
				users := make([]User, size)
				for i := range users {
					users[i] = generateUser(r)
				}
				if err := insertUsers(client, o, users); err != nil {
					errorCount.Add(int64(size))
					fmt.Printf("Error inserting %d users: %v\n", size, err)
				} else {
					successCount.Add(int64(size))
				}

				before := done.Add(int64(size)) - int64(size)
				after := before + int64(size)
				if before/reportEvery != after/reportEvery || after == int64(numUsers) {
					rate := float64(after) / time.Since(startTime).Seconds()
					fmt.Printf("Progress: %d/%d users (%.1f%%) - Rate: %.1f users/sec - Success: %d, Errors: %d\n",
						after, numUsers, float64(after)/float64(numUsers)*100, rate, successCount.Load(), errorCount.Load())
				}
			}
		}(time.Now().UnixNano() + int64(w))
	}

	for remaining := numUsers; remaining > 0; remaining -= o.batchSize {
		jobs <- min(remaining, o.batchSize)
	}
	close(jobs)
	wg.Wait()

	// Final statistics
	totalTime := time.Since(startTime)
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("LOAD TEST COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total users attempted: %d\n", numUsers)
	fmt.Printf("Successful inserts:    %d\n", successCount.Load())
	fmt.Printf("Failed inserts:        %d\n", errorCount.Load())
	fmt.Printf("Success rate:          %.2f%%\n", float64(successCount.Load())/float64(numUsers)*100)
	fmt.Printf("Total time:            %v\n", totalTime)
	fmt.Printf("Average rate:          %.2f users/sec\n", float64(numUsers)/totalTime.Seconds())
	fmt.Printf("Average time per user: %v\n", totalTime/time.Duration(numUsers))

	if n := errorCount.Load(); n > 0 {
		return fmt.Errorf("%d users failed to insert", n)
	}
	fmt.Println("\nLoad test completed successfully!")
	return nil
}

func main() {
	o := loadOptions{}
	var numUsers int

	cmd := &cobra.Command{
		Use:          "insert_docs_load",
		Short:        "Insert random users through the HTTP API and report throughput",
		Example:      "  go run ./test_scripts -n 1000\n  go run ./test_scripts -n 10000 --batch 100 --workers 4 --url http://localhost:8080",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if numUsers <= 0 {
				return fmt.Errorf("number of users must be greater than 0")
			}
			if o.batchSize <= 0 || o.batchSize > 1000 {
				return fmt.Errorf("batch size must be between 1 and 1000")
			}
			if o.workers <= 0 {
				return fmt.Errorf("workers must be greater than 0")
			}
			return runLoad(numUsers, o)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&numUsers, "users", "n", 1000, "number of users to insert")
	f.StringVar(&o.serverURL, "url", "http://localhost:8080", "server URL")
	f.StringVar(&o.collection, "collection", "users", "target collection")
	f.StringVar(&o.actor, "actor", "load-test", "value of the X-Actor header")
	f.IntVar(&o.batchSize, "batch", 1, "users per request; above 1 uses the batch endpoint")
	f.IntVar(&o.workers, "workers", 1, "concurrent requests")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
