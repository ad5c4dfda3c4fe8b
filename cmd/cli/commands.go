package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/app"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/pkg/models"
	"storefront/pkg/utils"
)

type clientFunc func() *apiClient

func newAuthCmd(client clientFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Admin sign-in"}

	var login, password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the admin token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if login == "" || password == "" {
				return fmt.Errorf("--login and --password are required")
			}
			c := client()
			var resp struct {
				Token string `json:"token"`
			}
			payload := map[string]string{"login": login, "password": password}
			if err := c.do(cmd.Context(), http.MethodPost, "/api/admin/auth/login", false, payload, &resp); err != nil {
				return err
			}
			if err := c.saveToken(resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
	loginCmd.Flags().StringVar(&login, "login", "", "username or email")
	loginCmd.Flags().StringVar(&password, "password", "", "password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client()
			if err := c.do(cmd.Context(), http.MethodPost, "/api/admin/auth/logout", true, nil, nil); err != nil {
				return err
			}
			return c.clearToken()
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var me map[string]any
			if err := client().do(cmd.Context(), http.MethodGet, "/api/admin/auth/me", true, nil, &me); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), me)
		},
	}

	cmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	return cmd
}

// newAdminCmd works on the local database and needs no running server.
func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Manage admin accounts in the local database"}

	var username, email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := utils.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			a, err := app.New(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer a.Close()

			admin, err := auth.Register(cmd.Context(), a.Admins, username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Username, admin.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "username")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&password, "password", "", "password (8-72 chars)")

	cmd.AddCommand(create)
	return cmd
}

func newCartCmd(client clientFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Work with a shopper cart"}
	var asJSON bool
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the raw result")

	show := func(cmd *cobra.Command, method, path string, payload any) error {
		var res cart.Result
		if err := client().do(cmd.Context(), method, path, false, payload, &res); err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		renderCart(cmd.OutOrStdout(), res)
		return nil
	}
	sessionPath := func(session string, rest ...string) string {
		return "/api/cart/" + url.PathEscape(session) + strings.Join(rest, "")
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Start a cart and print its session id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				SessionID string `json:"session_id"`
			}
			if err := client().do(cmd.Context(), http.MethodPost, "/api/cart", false, nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.SessionID)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show SESSION",
		Short: "Reconcile and print a cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, http.MethodGet, sessionPath(args[0]), nil)
		},
	}

	var line models.CartLine
	addCmd := &cobra.Command{
		Use:   "add SESSION",
		Short: "Add a product line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if line.ID == "" {
				return fmt.Errorf("--id is required")
			}
			return show(cmd, http.MethodPost, sessionPath(args[0], "/items"), line)
		},
	}
	addCmd.Flags().StringVar(&line.ID, "id", "", "product id")
	addCmd.Flags().StringVar(&line.Title, "title", "", "product title")
	addCmd.Flags().Float64Var(&line.Price, "price", 0, "unit price")
	addCmd.Flags().IntVar(&line.Quantity, "qty", 1, "quantity")
	addCmd.Flags().StringVar(&line.Color, "color", "", "colour name")
	addCmd.Flags().StringVar(&line.Size, "size", "", "size")
	addCmd.Flags().IntVar(&line.Stock, "stock", 0, "stock shown on the product page")

	indexCmd := func(use, short, method, suffix string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " SESSION INDEX",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("index must be an integer")
				}
				return show(cmd, method, sessionPath(args[0], "/items/", args[1], suffix), nil)
			},
		}
	}

	qtyCmd := &cobra.Command{
		Use:   "qty SESSION INDEX QUANTITY",
		Short: "Set a line quantity (clamped to 1..stock)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quantity must be an integer")
			}
			return show(cmd, http.MethodPut, sessionPath(args[0], "/items/", args[1]), map[string]int{"quantity": q})
		},
	}

	deliveryCmd := &cobra.Command{
		Use:       "delivery SESSION inside|outside",
		Short:     "Choose the delivery zone",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{models.DeliveryInside, models.DeliveryOutside},
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, http.MethodPut, sessionPath(args[0], "/delivery"), map[string]string{"choice": args[1]})
		},
	}

	var extra string
	checkoutCmd := &cobra.Command{
		Use:   "checkout SESSION",
		Short: "Write the checkout snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if extra != "" {
				var fields map[string]any
				if err := json.Unmarshal([]byte(extra), &fields); err != nil {
					return fmt.Errorf("--extra must be a JSON object: %w", err)
				}
				payload = fields
			}
			var data json.RawMessage
			if err := client().do(cmd.Context(), http.MethodPost, sessionPath(args[0], "/checkout"), false, payload, &data); err != nil {
				return err
			}
			var v any
			_ = json.Unmarshal(data, &v)
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	checkoutCmd.Flags().StringVar(&extra, "extra", "", `customer fields as JSON, e.g. {"name":"Ana"}`)

	clearCmd := &cobra.Command{
		Use:   "clear SESSION",
		Short: "Empty a cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().do(cmd.Context(), http.MethodDelete, sessionPath(args[0]), false, nil, nil)
		},
	}

	var choice string
	reconcileCmd := &cobra.Command{
		Use:   "reconcile FILE",
		Short: "Reconcile cart lines from a JSON file without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			payload := map[string]any{"lines": json.RawMessage(raw), "delivery_choice": choice}
			return show(cmd, http.MethodPost, "/api/cart/reconcile", payload)
		},
	}
	reconcileCmd.Flags().StringVar(&choice, "delivery", "", "inside or outside")

	cmd.AddCommand(newCmd, showCmd, addCmd, qtyCmd,
		indexCmd("inc", "Increase a line by one", http.MethodPost, "/increment"),
		indexCmd("dec", "Decrease a line by one", http.MethodPost, "/decrement"),
		indexCmd("rm", "Remove a line", http.MethodDelete, ""),
		deliveryCmd, checkoutCmd, clearCmd, reconcileCmd)
	return cmd
}

func newCatalogCmd(client clientFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Browse and manage products"}

	var category, query string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := url.Values{}
			if category != "" {
				v.Set("category", category)
			}
			if query != "" {
				v.Set("q", query)
			}
			if limit > 0 {
				v.Set("limit", strconv.Itoa(limit))
			}
			var resp struct {
				Total int              `json:"total"`
				Items []models.Product `json:"items"`
			}
			if err := client().do(cmd.Context(), http.MethodGet, "/api/products?"+v.Encode(), false, nil, &resp); err != nil {
				return err
			}
			renderProducts(cmd.OutOrStdout(), resp.Items)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d\n", len(resp.Items), resp.Total)
			return nil
		},
	}
	listCmd.Flags().StringVar(&category, "category", "", "category filter")
	listCmd.Flags().StringVar(&query, "q", "", "title search")
	listCmd.Flags().IntVar(&limit, "limit", 0, "max products")

	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search product titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Total   int `json:"total"`
				Visible int `json:"visible"`
				Items   []struct {
					Product models.Product `json:"product"`
				} `json:"items"`
			}
			q := url.QueryEscape(strings.Join(args, " "))
			if err := client().do(cmd.Context(), http.MethodGet, "/api/search?q="+q, false, nil, &resp); err != nil {
				return err
			}
			products := make([]models.Product, 0, len(resp.Items))
			for _, it := range resp.Items {
				products = append(products, it.Product)
			}
			renderProducts(cmd.OutOrStdout(), products)
			fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d products\n", resp.Visible, resp.Total)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the catalog with a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var resp struct {
				Total int `json:"total"`
			}
			if err := client().do(cmd.Context(), http.MethodPost, "/api/admin/products/import", true, strings.NewReader(string(raw)), &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products\n", resp.Total)
			return nil
		},
	}

	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return client().do(cmd.Context(), http.MethodGet, "/api/admin/products/export", true, nil, w)
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	var source string
	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Replace the stored catalog from the file or sheet source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Source string `json:"source"`
				Total  int    `json:"total"`
			}
			if err := client().do(cmd.Context(), http.MethodPost, "/api/admin/products/reload", true, map[string]string{"source": source}, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d products from %s\n", resp.Total, resp.Source)
			return nil
		},
	}
	reloadCmd.Flags().StringVar(&source, "source", "", "file or sheet (default: first that answers)")

	cmd.AddCommand(listCmd, searchCmd, importCmd, exportCmd, reloadCmd)
	return cmd
}

func newSheetCmd(client clientFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "sheet", Short: "Sync with the remote spreadsheet"}
	var sheetName string
	cmd.PersistentFlags().StringVar(&sheetName, "sheet", "", "sheet name (server default when empty)")

	path := func() string {
		if sheetName == "" {
			return "/api/admin/sheet"
		}
		return "/api/admin/sheet?sheet=" + url.QueryEscape(sheetName)
	}
	simple := func(use, short, method string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var resp map[string]any
				if err := client().do(cmd.Context(), method, path(), true, nil, &resp); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		}
	}

	cmd.AddCommand(
		simple("read", "Read products from the sheet", http.MethodGet),
		simple("push", "Send the stored catalog to the sheet", http.MethodPost),
		simple("delete", "Delete the sheet contents", http.MethodDelete),
	)
	return cmd
}

func newMediaCmd(client clientFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "media", Short: "Inspect the media library"}

	var scan bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List media files from the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/api/media"
			if scan {
				path += "?scan=1"
			}
			var resp struct {
				Images int                `json:"images"`
				Videos int                `json:"videos"`
				Items  []models.MediaFile `json:"items"`
			}
			if err := client().do(cmd.Context(), http.MethodGet, path, false, nil, &resp); err != nil {
				return err
			}
			for _, f := range resp.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-5s %s\n", f.Type, f.URL)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d images, %d videos\n", resp.Images, resp.Videos)
			return nil
		},
	}
	listCmd.Flags().BoolVar(&scan, "scan", false, "re-read the manifest")

	var prefer string
	findCmd := &cobra.Command{
		Use:   "find NAME",
		Short: "Check whether a file exists in the media folders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := url.Values{"name": {args[0]}}
			if prefer != "" {
				v.Set("prefer", prefer)
			}
			var f models.MediaFile
			if err := client().do(cmd.Context(), http.MethodGet, "/api/admin/media/find?"+v.Encode(), true, nil, &f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", f.Name, f.Type, f.URL)
			return nil
		},
	}
	findCmd.Flags().StringVar(&prefer, "prefer", "", "image or video")

	cmd.AddCommand(listCmd, findCmd)
	return cmd
}

func newWatchCmd(client clientFunc) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream cart and catalog events over WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			wsURL, err := client().websocketURL("/ws")
			if err != nil {
				return err
			}
			if session != "" {
				wsURL += "?session=" + url.QueryEscape(session)
			}
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Fprintln(cmd.ErrOrStderr(), "connected to", wsURL)

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(msg)))
			}
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "only show this cart session")
	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
