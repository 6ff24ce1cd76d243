package client

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"paperless/internal/model"
)

const recentCount = 5

// Dashboard summarises the documents visible to the user.
type Dashboard struct {
	Total     int
	TotalSize int64
	Recent    []model.Document
}

// NewDashboard builds the summary from a newest-first listing.
func NewDashboard(docs []model.Document) Dashboard {
	d := Dashboard{Total: len(docs), Recent: docs[:min(len(docs), recentCount)]}
	for _, doc := range docs {
		d.TotalSize += doc.FileSize
	}
	return d
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with 1024-based units and at most two
// decimals, e.g. "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i, div := 0, int64(1)
	for i < len(sizeUnits)-1 && bytes >= div*1024 {
		i++
		div *= 1024
	}
	v := math.Round(float64(bytes)/float64(div)*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func tags(doc model.Document) string {
	if len(doc.Tags) == 0 {
		return "-"
	}
	return strings.Join(doc.Tags, ", ")
}

// RenderDashboard writes the dashboard.
func RenderDashboard(w io.Writer, d Dashboard) error {
	fmt.Fprintf(w, "Total documents:    %d\n", d.Total)
	fmt.Fprintf(w, "Total storage used: %s\n", FormatSize(d.TotalSize))
	if len(d.Recent) == 0 {
		_, err := fmt.Fprintln(w, "\nNo documents yet. Upload one with: paperless upload <file>")
		return err
	}
	fmt.Fprintln(w, "\nRecent documents:")
	return RenderDocuments(w, d.Recent)
}

// RenderDocuments writes a document table.
func RenderDocuments(w io.Writer, docs []model.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "No documents found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tSTATUS\tSIZE\tUPLOADED")
	for _, doc := range docs {
		created := doc.CreatedAt
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			doc.ID, doc.Title, doc.Category, doc.ApprovalStatus, FormatSize(doc.FileSize), formatTime(&created))
	}
	return tw.Flush()
}

// RenderDocument writes the detail view. A boss sees the pending
// decision hint while the document is not approved.
func RenderDocument(w io.Writer, doc *model.Document, viewer *model.User) error {
	created := doc.CreatedAt
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Title:\t%s\n", doc.Title)
	fmt.Fprintf(tw, "ID:\t%s\n", doc.ID)
	fmt.Fprintf(tw, "File:\t%s (%s, %s)\n", doc.FileName, doc.FileType, FormatSize(doc.FileSize))
	fmt.Fprintf(tw, "Category:\t%s\n", doc.Category)
	fmt.Fprintf(tw, "Tags:\t%s\n", tags(*doc))
	fmt.Fprintf(tw, "Uploaded:\t%s\n", formatTime(&created))
	fmt.Fprintf(tw, "Status:\t%s\n", doc.ApprovalStatus)
	if doc.ApprovalDate != nil {
		fmt.Fprintf(tw, "Decided:\t%s\n", formatTime(doc.ApprovalDate))
	}
	if doc.ApprovalComments != "" {
		fmt.Fprintf(tw, "Comments:\t%s\n", doc.ApprovalComments)
	}
	fmt.Fprintf(tw, "Printed:\t%d times (last %s)\n", doc.PrintCount, formatTime(doc.LastPrintedAt))
	if err := tw.Flush(); err != nil {
		return err
	}

	if viewer != nil && viewer.IsBoss() && doc.ApprovalStatus != model.StatusApproved {
		fmt.Fprintf(w, "\nAwaiting decision: paperless approve %s [-comments ...] or paperless reject %s\n", doc.ID, doc.ID)
	}
	if doc.ApprovalStatus == model.StatusApproved && viewer != nil && doc.OwnedBy(viewer.ID) {
		fmt.Fprintf(w, "\nReady to print: paperless print %s\n", doc.ID)
	}
	return nil
}

// RenderUsers writes the user directory.
func RenderUsers(w io.Writer, users []model.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tROLE\tDEPARTMENT\tACTIVE\tLAST LOGIN")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			u.Username, u.Email, u.Role, u.Department, u.Active, formatTime(u.LastLogin))
	}
	return tw.Flush()
}
