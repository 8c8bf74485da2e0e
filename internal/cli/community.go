package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/safelink/internal/attach"
	"github.com/ppiankov/safelink/internal/community"
	"github.com/ppiankov/safelink/internal/model"
)

var (
	viewerID   string
	imagePaths []string
)

// viewerFile holds this device's pseudonymous id
const viewerFile = "viewer_id"

// reactCmd represents the react command
var reactCmd = &cobra.Command{
	Use:   "react <url> like|dislike",
	Short: "Like or dislike a link",
	Long: `React records this viewer's reaction to a link. Reacting again with the
same reaction removes it; the other reaction replaces it.

Example:
  safelink react example.com/login dislike`,
	Args: cobra.ExactArgs(2),
	RunE: runReact,
}

// commentCmd represents the comment command
var commentCmd = &cobra.Command{
	Use:   "comment <url> <text>",
	Short: "Comment on a link",
	Long: `Comment appends a note to a link, optionally with up to 3 images
(png, jpeg, gif or webp, 512KB each).

Example:
  safelink comment example.com/login "asked for my bank password" --image shot.png`,
	Args: cobra.ExactArgs(2),
	RunE: runComment,
}

// linkCmd represents the link command
var linkCmd = &cobra.Command{
	Use:   "link <url>",
	Short: "Show community state for a link",
	Args:  cobra.ExactArgs(1),
	RunE:  runLink,
}

func init() {
	rootCmd.AddCommand(reactCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(linkCmd)

	reactCmd.Flags().StringVar(&viewerID, "viewer", "", "viewer id (default: this device)")
	commentCmd.Flags().StringVar(&viewerID, "viewer", "", "viewer id (default: this device)")
	commentCmd.Flags().StringArrayVar(&imagePaths, "image", nil, "image file to attach (repeatable)")
	linkCmd.Flags().StringVar(&viewerID, "viewer", "", "viewer id (default: this device)")
}

func runReact(cmd *cobra.Command, args []string) error {
	reaction := model.Reaction(strings.ToLower(args[1]))
	if reaction != model.ReactionLike && reaction != model.ReactionDislike {
		return fmt.Errorf("reaction must be like or dislike, got %q", args[1])
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	viewer, err := resolveViewer(viewerID)
	if err != nil {
		return err
	}

	link, err := a.pipeline.Community().React(cmd.Context(), args[0], viewer, reaction)
	if err != nil {
		return fmt.Errorf("react failed: %w", err)
	}

	printLink(link)
	return nil
}

func runComment(cmd *cobra.Command, args []string) error {
	images := make([]string, 0, len(imagePaths))
	for _, path := range imagePaths {
		uri, err := attach.EncodeFile(path)
		if err != nil {
			return fmt.Errorf("attach %s: %w", path, err)
		}
		images = append(images, uri)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	viewer, err := resolveViewer(viewerID)
	if err != nil {
		return err
	}

	c, err := a.pipeline.Community().AddComment(cmd.Context(), args[0], community.NewComment{
		UserID: viewer,
		Text:   args[1],
		Images: images,
	})
	if err != nil {
		return fmt.Errorf("comment failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Comment %s added", c.ID)
	if len(c.Images) > 0 {
		fmt.Fprintf(os.Stderr, " with %d image(s)", len(c.Images))
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

func runLink(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	viewer, err := resolveViewer(viewerID)
	if err != nil {
		return err
	}

	link, err := a.pipeline.Community().Link(cmd.Context(), args[0], viewer)
	if err != nil {
		return err
	}

	printLink(link)
	for _, c := range link.Comments {
		fmt.Printf("  [%s] %s: %s", c.Timestamp.Local().Format("2006-01-02 15:04"), shortID(c.UserID), c.Text)
		if len(c.Images) > 0 {
			fmt.Printf(" (%d image(s))", len(c.Images))
		}
		fmt.Println()
	}
	return nil
}

func printLink(link community.Link) {
	fmt.Printf("%s\n", link.URL)
	fmt.Printf("  Likes: %d  Dislikes: %d  Comments: %d\n", link.Likes, link.Dislikes, len(link.Comments))
	if link.Reaction != model.ReactionNone {
		fmt.Printf("  Your reaction: %s\n", link.Reaction)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveViewer returns explicit, or this device's id, creating it on first use
func resolveViewer(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return deviceViewer(filepath.Join(home, ".safelink"))
}

func deviceViewer(dir string) (string, error) {
	path := filepath.Join(dir, viewerFile)

	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read viewer id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write viewer id: %w", err)
	}
	return id, nil
}
