package models

import "time"

// DefaultCrawlName keys the singleton CrawlState document of the listing crawl.
const DefaultCrawlName = "crawler"

// CrawlState remembers the last listing page whose fetch and write both succeeded.
type CrawlState struct {
	Name              string    `json:"name" bson:"_id"`
	LastCompletedPage int       `json:"last_completed_page" bson:"lastCompletedPage"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updatedAt"`
}

// ResumePage is the first page a new crawl should fetch.
func (s *CrawlState) ResumePage() int {
	if s == nil || s.LastCompletedPage < 1 {
		return 1
	}
	return s.LastCompletedPage + 1
}
