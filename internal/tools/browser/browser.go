// Package browser provides the browser-* directive tools over a
// headless Chrome instance driven through go-rod. The browser is
// launched lazily on first use and shared by all browser directives in
// the session.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"dirigent/internal/directive"
	"dirigent/internal/logging"
	"dirigent/internal/tools"
)

const navigationTimeout = 30 * time.Second

// Controller owns the shared browser and its single active page.
type Controller struct {
	workspace string

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewController creates a controller; screenshots land under workspace.
func NewController(workspace string) *Controller {
	return &Controller{workspace: workspace}
}

// Register adds all browser tools to the registry.
func Register(reg *tools.Registry, workspace string) *Controller {
	c := NewController(workspace)
	reg.MustRegister(c.NavigateTool())
	reg.MustRegister(c.ClickTool())
	reg.MustRegister(c.InputTool())
	reg.MustRegister(c.ScreenshotTool())
	return c
}

// ensurePage launches the browser on first use.
func (c *Controller) ensurePage() (*rod.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page != nil {
		return c.page, nil
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	logging.Browser("Browser launched at %s", controlURL)
	c.browser = browser
	c.page = page
	return page, nil
}

// Close shuts the browser down if it was started.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser != nil {
		_ = c.browser.Close()
		c.browser = nil
		c.page = nil
	}
}

// NavigateTool returns the browser-navigate tool.
func (c *Controller) NavigateTool() *tools.Tool {
	return &tools.Tool{
		Tag:         "browser-navigate",
		Description: "Navigate the browser to a URL",
		Timeout:     45 * time.Second,
		Bindings: []directive.ParamBinding{
			{Name: "url", Source: directive.SourceAttribute, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			page, err := c.ensurePage()
			if err != nil {
				return "", err
			}
			url := tools.StringArg(args, "url")

			p := page.Context(ctx).Timeout(navigationTimeout)
			if err := p.Navigate(url); err != nil {
				return "", fmt.Errorf("navigation failed: %w", err)
			}
			if err := p.WaitLoad(); err != nil {
				return "", fmt.Errorf("page load failed: %w", err)
			}

			info, err := p.Info()
			if err != nil {
				return fmt.Sprintf("Navigated to %s", url), nil
			}
			logging.Browser("Navigated to %s (%s)", info.URL, info.Title)
			return fmt.Sprintf("Navigated to %s (%s)", info.URL, info.Title), nil
		},
	}
}

// ClickTool returns the browser-click tool. The target is a CSS
// selector, or a viewport coordinate pair when no selector is given.
func (c *Controller) ClickTool() *tools.Tool {
	return &tools.Tool{
		Tag:         "browser-click",
		Description: "Click an element by CSS selector or viewport coordinates",
		Timeout:     30 * time.Second,
		Bindings: []directive.ParamBinding{
			{Name: "selector", Source: directive.SourceAttribute},
			{Name: "x", Source: directive.SourceAttribute, Type: directive.TypeInt},
			{Name: "y", Source: directive.SourceAttribute, Type: directive.TypeInt},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			page, err := c.ensurePage()
			if err != nil {
				return "", err
			}
			p := page.Context(ctx)

			if selector := tools.StringArg(args, "selector"); selector != "" {
				el, err := p.Element(selector)
				if err != nil {
					return "", fmt.Errorf("element not found: %s", selector)
				}
				if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
					return "", fmt.Errorf("click failed: %w", err)
				}
				return fmt.Sprintf("Clicked %s", selector), nil
			}

			x := tools.IntArg(args, "x", -1)
			y := tools.IntArg(args, "y", -1)
			if x < 0 || y < 0 {
				return "", fmt.Errorf("either selector or x/y coordinates are required")
			}
			if err := p.Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
				return "", fmt.Errorf("mouse move failed: %w", err)
			}
			if err := p.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
				return "", fmt.Errorf("click failed: %w", err)
			}
			return fmt.Sprintf("Clicked at (%d, %d)", x, y), nil
		},
	}
}

// InputTool returns the browser-input tool.
func (c *Controller) InputTool() *tools.Tool {
	return &tools.Tool{
		Tag:         "browser-input",
		Description: "Type text into an element",
		Timeout:     30 * time.Second,
		Bindings: []directive.ParamBinding{
			{Name: "selector", Source: directive.SourceAttribute, Required: true},
			{Name: "text", Source: directive.SourceContent, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			page, err := c.ensurePage()
			if err != nil {
				return "", err
			}
			selector := tools.StringArg(args, "selector")

			el, err := page.Context(ctx).Element(selector)
			if err != nil {
				return "", fmt.Errorf("element not found: %s", selector)
			}
			if err := el.Input(tools.StringArg(args, "text")); err != nil {
				return "", fmt.Errorf("input failed: %w", err)
			}
			return fmt.Sprintf("Typed into %s", selector), nil
		},
	}
}

// ScreenshotTool returns the browser-screenshot tool.
func (c *Controller) ScreenshotTool() *tools.Tool {
	return &tools.Tool{
		Tag:         "browser-screenshot",
		Description: "Capture a screenshot of the current page",
		Timeout:     30 * time.Second,
		Bindings: []directive.ParamBinding{
			{Name: "file_path", Source: directive.SourceAttribute},
			{Name: "full_page", Source: directive.SourceAttribute, Type: directive.TypeBool},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			page, err := c.ensurePage()
			if err != nil {
				return "", err
			}

			data, err := page.Context(ctx).Screenshot(tools.BoolArg(args, "full_page", false), nil)
			if err != nil {
				return "", fmt.Errorf("screenshot failed: %w", err)
			}

			name := tools.StringArg(args, "file_path")
			if name == "" {
				name = fmt.Sprintf("screenshot-%d.png", time.Now().UnixMilli())
			}
			path := filepath.Join(c.workspace, filepath.Clean("/"+name))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return "", fmt.Errorf("failed to save screenshot: %w", err)
			}

			logging.Browser("Screenshot saved to %s (%d bytes)", path, len(data))
			return fmt.Sprintf("Screenshot saved to %s", name), nil
		},
	}
}
