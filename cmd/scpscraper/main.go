// Package main provides the scpscraper CLI.
//
// Usage:
//
//	scpscraper scrape --start 0 --end 1000
//	scpscraper html --dataset
//	scpscraper get 173
//	scpscraper name 173
package main

func main() {
	Execute()
}
