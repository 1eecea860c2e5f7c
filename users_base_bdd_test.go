package userfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"reflect"
	"sync"

	"github.com/CrisisTextLine/userfetch/mockserver"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cucumber/godog"
)

// RealBaseURLEnv names the user service the @real scenarios run against.
const RealBaseURLEnv = "USERFETCH_REAL_BASE_URL"

// Static errors for user fetch BDD tests
var (
	errNoClient              = errors.New("no client configured")
	errNoMockServer          = errors.New("no mock server running")
	errNoResponse            = errors.New("expected a response but the result was absent")
	errExpectedAbsent        = errors.New("expected the absent value but got a response")
	errResponseNotOK         = errors.New("response is not ok")
	errHeaderMismatch        = errors.New("response header mismatch")
	errNotEmptyList          = errors.New("response JSON is not an empty list")
	errUserCountMismatch     = errors.New("unexpected number of users")
	errUnexpectedTransport   = errors.New("unexpected transport error")
	errExpectedTransport     = errors.New("expected a transport error")
	errUsersURLChanged       = errors.New("configured users URL changed")
	errEventNotReceived      = errors.New("expected event was not received")
	errRequestCountMismatch  = errors.New("unexpected number of requests at the mock service")
	errRealBaseURLNotDefined = errors.New(RealBaseURLEnv + " is not set")
)

// UsersBDDTestContext holds the state of one scenario.
type UsersBDDTestContext struct {
	baseClient *Client
	client     *Client
	mock       *mockserver.Server
	response   *Response
	fetchErr   error
	fetched    bool

	mu     sync.Mutex
	events []cloudevents.Event
}

func (c *UsersBDDTestContext) resetContext() {
	c.closeMock()
	c.baseClient = nil
	c.client = nil
	c.response = nil
	c.fetchErr = nil
	c.fetched = false

	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}

func (c *UsersBDDTestContext) closeMock() {
	if c.mock != nil {
		_ = c.mock.Close()
		c.mock = nil
	}
}

func (c *UsersBDDTestContext) theConfiguredBaseURLIs(baseURL string) error {
	client, err := New(&Settings{BaseURL: baseURL, UserAgent: DefaultUserAgent}, WithLogger(NopLogger()))
	if err != nil {
		return err
	}
	c.baseClient = client
	c.client = client
	return nil
}

func (c *UsersBDDTestContext) aMockUserServiceIsRunningOnAFreePort() error {
	port, err := mockserver.FreePort()
	if err != nil {
		return err
	}
	mock, err := mockserver.Start(mockserver.WithPort(port))
	if err != nil {
		return err
	}
	c.mock = mock
	return nil
}

func (c *UsersBDDTestContext) theUsersURLPointsAtTheMockService() error {
	if c.baseClient == nil {
		return errNoClient
	}
	if c.mock == nil {
		return errNoMockServer
	}
	usersURL, err := UsersURL(c.mock.URL())
	if err != nil {
		return err
	}
	c.client = c.baseClient.WithUsersURL(usersURL)
	return nil
}

func (c *UsersBDDTestContext) theUsersURLPointsAtAClosedPort() error {
	if c.baseClient == nil {
		return errNoClient
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	addr := listener.Addr().String()
	if err := listener.Close(); err != nil {
		return err
	}
	c.client = c.baseClient.WithUsersURL("http://" + addr + "/users")
	return nil
}

func (c *UsersBDDTestContext) theMockUserServiceRespondsWithStatus(status int) error {
	if c.mock == nil {
		return errNoMockServer
	}
	return c.mock.SetResponse(status, nil, nil)
}

func (c *UsersBDDTestContext) theMockUserServiceRespondsWithStatusAndBody(status int, body *godog.DocString) error {
	if c.mock == nil {
		return errNoMockServer
	}
	return c.mock.SetResponse(status, nil, []byte(body.Content))
}

func (c *UsersBDDTestContext) theBaseURLIsTakenFromTheEnvironment() error {
	baseURL := os.Getenv(RealBaseURLEnv)
	if baseURL == "" {
		return errRealBaseURLNotDefined
	}
	settings := &Settings{BaseURL: baseURL}
	if err := ValidateConfig(settings); err != nil {
		return err
	}
	client, err := New(settings, WithLogger(NopLogger()))
	if err != nil {
		return err
	}
	c.baseClient = client
	c.client = client
	return nil
}

func (c *UsersBDDTestContext) anObserverIsRegisteredOnTheClient() error {
	if c.client == nil {
		return errNoClient
	}
	return c.client.RegisterObserver(NewFunctionalObserver("bdd", func(_ context.Context, event cloudevents.Event) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, event)
		return nil
	}))
}

func (c *UsersBDDTestContext) iFetchTheUsers(ctx context.Context) error {
	if c.client == nil {
		return errNoClient
	}
	c.response, c.fetchErr = c.client.GetUsers(ctx)
	c.fetched = true
	return nil
}

func (c *UsersBDDTestContext) theResponseShouldBeOK() error {
	if c.fetchErr != nil {
		return fmt.Errorf("%w: %w", errUnexpectedTransport, c.fetchErr)
	}
	if c.response == nil {
		return errNoResponse
	}
	if !c.response.OK() {
		return fmt.Errorf("%w: status %d", errResponseNotOK, c.response.StatusCode)
	}
	return nil
}

func (c *UsersBDDTestContext) theResponseHeadersShouldContain(name, value string) error {
	if c.response == nil {
		return errNoResponse
	}
	if got := c.response.Headers()[http.CanonicalHeaderKey(name)]; got != value {
		return fmt.Errorf("%w: %s is %q, want %q", errHeaderMismatch, name, got, value)
	}
	return nil
}

func (c *UsersBDDTestContext) theResponseJSONShouldBeAnEmptyList() error {
	if c.response == nil {
		return errNoResponse
	}
	list, err := c.response.List()
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(list, []any{}) {
		return fmt.Errorf("%w: %v", errNotEmptyList, list)
	}
	return nil
}

func (c *UsersBDDTestContext) theResponseJSONShouldBeAList() error {
	if c.response == nil {
		return errNoResponse
	}
	_, err := c.response.List()
	return err
}

func (c *UsersBDDTestContext) theResponseJSONShouldBeAListOfUsers(count int) error {
	if c.response == nil {
		return errNoResponse
	}
	users, err := c.response.Users()
	if err != nil {
		return err
	}
	if len(users) != count {
		return fmt.Errorf("%w: got %d, want %d", errUserCountMismatch, len(users), count)
	}
	return nil
}

func (c *UsersBDDTestContext) theResultShouldBeAbsent() error {
	if !c.fetched {
		return errNoResponse
	}
	if c.response != nil {
		return fmt.Errorf("%w: status %d", errExpectedAbsent, c.response.StatusCode)
	}
	return nil
}

func (c *UsersBDDTestContext) noTransportErrorShouldBeReported() error {
	if c.fetchErr != nil {
		return fmt.Errorf("%w: %w", errUnexpectedTransport, c.fetchErr)
	}
	return nil
}

func (c *UsersBDDTestContext) aTransportErrorShouldBeReported() error {
	if !IsTransportError(c.fetchErr) {
		return fmt.Errorf("%w: got %v", errExpectedTransport, c.fetchErr)
	}
	return nil
}

func (c *UsersBDDTestContext) theConfiguredUsersURLShouldStillBe(expected string) error {
	if c.baseClient == nil {
		return errNoClient
	}
	if got := c.baseClient.UsersURL(); got != expected {
		return fmt.Errorf("%w: got %q, want %q", errUsersURLChanged, got, expected)
	}
	return nil
}

func (c *UsersBDDTestContext) theObserverShouldHaveReceivedAEvent(eventType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, event := range c.events {
		if event.Type() == eventType {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", errEventNotReceived, eventType)
}

func (c *UsersBDDTestContext) theMockServiceShouldHaveReceivedRequests(count int) error {
	if c.mock == nil {
		return errNoMockServer
	}
	if got := len(c.mock.Requests()); got != count {
		return fmt.Errorf("%w: got %d, want %d", errRequestCountMismatch, got, count)
	}
	return nil
}

// InitializeUsersScenario registers the user fetch steps and the per-scenario
// reset and cleanup hooks.
func InitializeUsersScenario(ctx *godog.ScenarioContext, testCtx *UsersBDDTestContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.resetContext()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		testCtx.closeMock()
		return ctx, nil
	})

	// Setup
	ctx.Given(`^the configured base URL is "([^"]*)"$`, testCtx.theConfiguredBaseURLIs)
	ctx.Given(`^a mock user service is running on a free port$`, testCtx.aMockUserServiceIsRunningOnAFreePort)
	ctx.Given(`^the users URL points at the mock service$`, testCtx.theUsersURLPointsAtTheMockService)
	ctx.Given(`^the users URL points at a closed port$`, testCtx.theUsersURLPointsAtAClosedPort)
	ctx.Given(`^the mock user service responds with status (\d+)$`, testCtx.theMockUserServiceRespondsWithStatus)
	ctx.Given(`^the mock user service responds with status (\d+) and body:$`, testCtx.theMockUserServiceRespondsWithStatusAndBody)
	ctx.Given(`^the base URL is taken from USERFETCH_REAL_BASE_URL$`, testCtx.theBaseURLIsTakenFromTheEnvironment)
	ctx.Given(`^an observer is registered on the client$`, testCtx.anObserverIsRegisteredOnTheClient)

	// Fetch
	ctx.When(`^I fetch the users$`, testCtx.iFetchTheUsers)

	// Assertions
	ctx.Then(`^the response should be ok$`, testCtx.theResponseShouldBeOK)
	ctx.Then(`^the response headers should contain "([^"]*)" "([^"]*)"$`, testCtx.theResponseHeadersShouldContain)
	ctx.Then(`^the response JSON should be an empty list$`, testCtx.theResponseJSONShouldBeAnEmptyList)
	ctx.Then(`^the response JSON should be a list$`, testCtx.theResponseJSONShouldBeAList)
	ctx.Then(`^the response JSON should be a list of (\d+) users$`, testCtx.theResponseJSONShouldBeAListOfUsers)
	ctx.Then(`^the result should be absent$`, testCtx.theResultShouldBeAbsent)
	ctx.Then(`^no transport error should be reported$`, testCtx.noTransportErrorShouldBeReported)
	ctx.Then(`^a transport error should be reported$`, testCtx.aTransportErrorShouldBeReported)
	ctx.Then(`^the configured users URL should still be "([^"]*)"$`, testCtx.theConfiguredUsersURLShouldStillBe)
	ctx.Then(`^the observer should have received a "([^"]*)" event$`, testCtx.theObserverShouldHaveReceivedAEvent)
	ctx.Then(`^the mock service should have received (\d+) requests?$`, testCtx.theMockServiceShouldHaveReceivedRequests)
}
