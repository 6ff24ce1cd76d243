package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"paperless/internal/client"
	"paperless/internal/service"
)

func (a *app) registerCmd() *cobra.Command {
	var in client.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an employee account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Username, err = a.prompt("Username", in.Username); err != nil {
				return err
			}
			if in.Email, err = a.prompt("Email", in.Email); err != nil {
				return err
			}
			if in.Password, err = a.prompt("Password", in.Password); err != nil {
				return err
			}
			if in.Department, err = a.prompt("Department", in.Department); err != nil {
				return err
			}
			user, err := a.api.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.printf("Registered and logged in as %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "username, 3 to 50 characters")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&in.Department, "department", "", "department")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = a.prompt("Email", email); err != nil {
				return err
			}
			if password, err = a.prompt("Password", password); err != nil {
				return err
			}
			user, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.printf("Logged in as %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.session.Authenticated() {
				return client.ErrLoginRequired
			}
			user, err := a.api.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("%s <%s>\nrole: %s\ndepartment: %s\n", user.Username, user.Email, user.Role, user.Department)
			return nil
		},
	}
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summary of your documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.guard(client.ViewDashboard); err != nil {
				return err
			}
			docs, err := a.api.Documents(cmd.Context(), client.DocumentQuery{})
			if err != nil {
				return fmt.Errorf("failed to load dashboard data: %w", err)
			}
			return client.RenderDashboard(a.out, client.NewDashboard(docs))
		},
	}
}

func (a *app) documentsCmd() *cobra.Command {
	var q client.DocumentQuery
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.guard(client.ViewDocuments); err != nil {
				return err
			}
			docs, err := a.api.Documents(cmd.Context(), q)
			if err != nil {
				return err
			}
			return client.RenderDocuments(a.out, docs)
		},
	}
	cmd.Flags().StringVar(&q.UserID, "user", "", "owner id (bosses only)")
	cmd.Flags().StringVar(&q.Category, "category", "", "invoice, receipt, contract or other")
	cmd.Flags().StringVar(&q.Status, "status", "", "pending, approved or rejected")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.guard(client.ViewDocument); err != nil {
				return err
			}
			doc, err := a.api.Document(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return client.RenderDocument(a.out, doc, a.session.User())
		},
	}
}

func (a *app) uploadCmd() *cobra.Command {
	var title, category, tags string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a PDF, JPEG, PNG, DOC or DOCX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.guard(client.ViewUpload); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := a.api.Upload(cmd.Context(), client.UploadInput{
				FileName: args[0],
				Body:     f,
				Title:    title,
				Category: category,
				Tags:     service.ParseTags(tags),
			})
			if err != nil {
				return err
			}
			a.printf("Uploaded %q as %s\n", doc.Title, doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title, defaults to the file name")
	cmd.Flags().StringVar(&category, "category", "", "invoice, receipt, contract or other")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var title, category, tags string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change title, category or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.guard(client.ViewDocument); err != nil {
				return err
			}
			var update client.DocumentUpdate
			if cmd.Flags().Changed("title") {
				update.Title = &title
			}
			if cmd.Flags().Changed("category") {
				update.Category = &category
			}
			if cmd.Flags().Changed("tags") {
				update.Tags = service.ParseTags(tags)
			}
			if update.Title == nil && update.Category == nil && update.Tags == nil {
				return fmt.Errorf("nothing to change: pass --title, --category or --tags")
			}
			doc, err := a.api.UpdateDocument(cmd.Context(), args[0], update)
			if err != nil {
				return err
			}
			return client.RenderDocument(a.out, doc, a.session.User())
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags, replaces the current ones")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.guard(client.ViewDocument); err != nil {
				return err
			}
			if err := a.api.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Document deleted successfully\n")
			return nil
		},
	}
}

func (a *app) downloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the document file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.guard(client.ViewDocument); err != nil {
				return err
			}
			return a.download(cmd.Context(), args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path, defaults to the stored file name")
	return cmd
}

// download writes to a temporary file next to the destination and moves
// it into place once complete.
func (a *app) download(ctx context.Context, id, output string) error {
	dir := "."
	if output != "" {
		dir = filepath.Dir(output)
	}
	tmp, err := os.CreateTemp(dir, ".paperless-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	name, n, err := a.api.Download(ctx, id, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if output == "" {
		output = filepath.Join(dir, name)
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return err
	}
	a.printf("Saved %s (%s)\n", output, client.FormatSize(n))
	return nil
}

func (a *app) decisionCmd(use, status string) *cobra.Command {
	var comments string
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: "Mark a document as " + status + " (boss only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.guard(client.ViewDocument); err != nil {
				return err
			}
			doc, err := a.api.Approve(cmd.Context(), args[0], status, comments)
			if err != nil {
				return err
			}
			a.printf("Document %s is now %s\n", doc.ID, doc.ApprovalStatus)
			return nil
		},
	}
	cmd.Flags().StringVar(&comments, "comments", "", "comments for the uploader")
	return cmd
}

func (a *app) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print <id>",
		Short: "Print an approved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.guard(client.ViewDocument); err != nil {
				return err
			}
			res, err := a.api.Print(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printf("%s\n%s\n", res.Message, res.URL)
			return nil
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users (boss only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.guard(client.ViewUsers); err != nil {
				return err
			}
			users, err := a.api.Users(cmd.Context())
			if err != nil {
				return err
			}
			return client.RenderUsers(a.out, users)
		},
	}
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.api.Health(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("%s (%s), up %s\n", h.Status, h.Environment, formatUptime(h.Uptime))
			return nil
		},
	}
}
