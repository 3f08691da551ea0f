package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"packmate/api"
	"packmate/config"
	"packmate/keystore"
	"packmate/kyc"
	"packmate/models"
	"packmate/role"
	"packmate/session"
	"packmate/shipment"
	"packmate/utils"
	"packmate/workflow"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()
	config.LoadConfig()
	logger := utils.GetLogger()

	var (
		flowName = pflag.String("flow", "auth", "flow to run: auth, kyc, trip, consent")
		otpFlow  = pflag.String("otp-flow", "login", "otp flow for auth: login or register")
		name     = pflag.String("name", "", "display name (register flow)")
		email    = pflag.String("email", "", "account email")
		roleName = pflag.String("role", "", "role to select after auth: TRAVELLER or SENDER")
	)
	pflag.Parse()

	ks, err := keystore.Open(config.AppConfig.KeystorePath, config.AppConfig.KeystorePassphrase)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to open keystore: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Sugar().Info("main: shutting down...")
		cancel()
	}()

	sess := session.NewStore(ks,
		session.WithHTTPClient(&http.Client{Timeout: config.HTTPTimeout()}),
		session.WithLogoutHook(func() {
			logger.Sugar().Info("main: session ended, sign in again")
		}),
	)
	sess.Initialize(ctx)

	roles := role.NewStore(ks)
	roles.Initialize()

	client := api.NewClient(config.AppConfig.APIURL, sess,
		api.WithHTTPClient(&http.Client{Timeout: config.HTTPTimeout()}),
	)
	gateway := api.NewRetryingGateway(client, api.RetryConfig{
		MaxAttempts: config.AppConfig.OTPRetryAttempts,
		BaseDelay:   time.Duration(config.AppConfig.OTPRetryBaseMs) * time.Millisecond,
		MaxDelay:    time.Duration(config.AppConfig.OTPRetryMaxMs) * time.Millisecond,
	})

	switch *flowName {
	case "auth":
		err = runAuth(ctx, gateway, client, sess, ks, roles, *otpFlow, *name, *email, *roleName)
	case "kyc":
		err = runKYC(ctx, client, sess)
	case "trip":
		err = runTrip(ctx, client)
	case "consent":
		err = runConsent(ctx, client)
	default:
		err = fmt.Errorf("unknown flow %q", *flowName)
	}
	if err != nil {
		logger.Sugar().Fatalf("main: %s flow failed: %v", *flowName, err)
	}
}

func runAuth(ctx context.Context, gateway api.OTPGateway, client *api.Client, sess *session.Store, ks *keystore.Store, roles *role.Store, otpFlow, name, email, roleName string) error {
	logger := utils.GetLogger()
	if sess.IsAuthenticated() {
		logger.Sugar().Infof("already signed in as user %d", sess.UserID())
		return nil
	}

	flow := workflow.NewAuthFlow(gateway, sess, ks)
	defer flow.Close()

	challenge, err := flow.Begin(ctx, models.OTPFlow(otpFlow), name, email)
	if err != nil {
		return err
	}

	go func() {
		for remaining := range workflow.Countdown(ctx, challenge.ExpiresAt) {
			if remaining > 0 && remaining%30 == 0 {
				logger.Sugar().Infof("code expires in %ds", remaining)
			}
		}
	}()

	fmt.Printf("Enter the code sent to %s: ", email)
	code, err := readLine()
	if err != nil {
		return err
	}
	if err := flow.Verify(ctx, code); err != nil {
		return err
	}
	logger.Sugar().Infof("signed in as user %d", sess.UserID())

	if roleName == "" {
		return nil
	}
	r := models.Role(roleName)
	if err := client.UpdateRole(ctx, sess.UserID(), r); err != nil {
		return err
	}
	return roles.SetRole(r)
}

func runKYC(ctx context.Context, client *api.Client, sess *session.Store) error {
	logger := utils.GetLogger()
	draft := kyc.NewDraft()

	fmt.Print("Country code (e.g. GH): ")
	country, err := readLine()
	if err != nil {
		return err
	}
	fmt.Print("Document type (PASSPORT, IDENTITY_CARD, DRIVING_LICENCE): ")
	docType, err := readLine()
	if err != nil {
		return err
	}
	draft.UpdateIdentity(country, models.DocumentType(docType))

	for _, slot := range []models.ImageSlot{models.SlotFront, models.SlotBack, models.SlotSelfie} {
		fmt.Printf("Path to %s image: ", slot)
		path, err := readLine()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s image: %w", slot, err)
		}
		if err := draft.AddImage(slot, utils.EncodeImage(data)); err != nil {
			return err
		}
	}

	flow := kyc.NewFlow(draft)
	for flow.State() != kyc.StateSelfieCapture {
		if err := flow.Advance(); err != nil {
			return err
		}
	}

	runner := workflow.NewKYCRunner(flow, client, sess)
	defer runner.Close()
	if err := runner.Submit(ctx); err != nil {
		return err
	}
	logger.Sugar().Info("identity documents submitted for verification")
	return nil
}

func runTrip(ctx context.Context, client *api.Client) error {
	logger := utils.GetLogger()
	store := shipment.NewStore()
	wizard := shipment.NewWizard(store)
	runner := workflow.NewTripRunner(wizard, store, client)
	defer runner.Close()

	travel, err := promptTravelDetails()
	if err != nil {
		return err
	}
	if err := runner.SubmitTravelDetails(travel); err != nil {
		return err
	}

	pkg, err := promptPackageDetails()
	if err != nil {
		return err
	}
	if err := runner.SubmitPackageDetails(ctx, pkg); err != nil {
		return err
	}
	logger.Sugar().Info("trip published, traveler mode is now active")
	return nil
}

func runConsent(ctx context.Context, client *api.Client) error {
	logger := utils.GetLogger()
	consent := api.NewConsentFlow(client, config.AppConfig.ConsentCallbackPort)

	url, err := consent.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Open the consent screen in your browser:\n\n  %s\n\nWaiting for the redirect on %s...\n", url, consent.Addr())

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	token, err := consent.Wait(waitCtx)
	if err != nil {
		return err
	}
	logger.Sugar().Infof("consent granted, received token of %d bytes", len(token))
	return nil
}

func promptTravelDetails() (shipment.Partial, error) {
	var p shipment.Partial
	fields := []struct {
		label string
		dst   **string
	}{
		{"Origin country", &p.OriginCountry},
		{"Origin city", &p.OriginCity},
		{"Destination country", &p.DestinationCountry},
		{"Destination city", &p.DestinationCity},
	}
	for _, f := range fields {
		fmt.Printf("%s: ", f.label)
		v, err := readLine()
		if err != nil {
			return p, err
		}
		*f.dst = &v
	}

	dep, err := promptTime("Departure (RFC3339)")
	if err != nil {
		return p, err
	}
	arr, err := promptTime("Arrival (RFC3339)")
	if err != nil {
		return p, err
	}
	p.DepartureAt, p.ArrivalAt = &dep, &arr

	fmt.Print("Mode (FLIGHT or CAR): ")
	modeStr, err := readLine()
	if err != nil {
		return p, err
	}
	mode := models.TripMode(modeStr)
	p.Mode = &mode
	if mode == models.ModeFlight {
		fmt.Print("Flight number: ")
		fn, err := readLine()
		if err != nil {
			return p, err
		}
		p.FlightNumber = &fn
	} else {
		fmt.Print("Vehicle plate: ")
		vp, err := readLine()
		if err != nil {
			return p, err
		}
		p.VehiclePlate = &vp
	}
	return p, nil
}

func promptPackageDetails() (shipment.Partial, error) {
	var p shipment.Partial
	fmt.Print("Allowed categories (comma separated): ")
	cats, err := readLine()
	if err != nil {
		return p, err
	}
	for _, c := range strings.Split(cats, ",") {
		if c = strings.TrimSpace(c); c != "" {
			p.AllowedCategories = append(p.AllowedCategories, c)
		}
	}

	dims := []struct {
		label string
		dst   **float64
	}{
		{"Max weight (kg)", &p.MaxWeightKg},
		{"Max height (cm)", &p.MaxHeightCm},
		{"Max width (cm)", &p.MaxWidthCm},
		{"Max length (cm)", &p.MaxLengthCm},
	}
	for _, d := range dims {
		fmt.Printf("%s: ", d.label)
		v, err := readLine()
		if err != nil {
			return p, err
		}
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			return p, fmt.Errorf("parse %s: %w", d.label, err)
		}
		*d.dst = &f
	}
	return p, nil
}

func promptTime(label string) (time.Time, error) {
	fmt.Printf("%s: ", label)
	v, err := readLine()
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

var stdin = bufio.NewReader(os.Stdin)

func readLine() (string, error) {
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
