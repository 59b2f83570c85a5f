package routes

import (
	"net/http"

	"expensetracker/handlers"
)

// CORS middleware
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Replace * with your domain in production
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Users    *handlers.UserHandler
	Expenses *handlers.ExpenseHandler
	Reports  *handlers.ReportHandler
	Guard    handlers.Authorizer
}

func SetupRoutes(h Handlers) http.Handler {
	mux := http.NewServeMux()

	public := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withCORS(handlers.RecoverWrapper(fn)))
	}
	private := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withCORS(handlers.RecoverWrapper(handlers.AuthMiddleware(h.Guard, fn))))
	}

	public("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// User routes
	public("POST /api/auth/signup", h.Users.Signup)
	public("POST /api/auth/login", h.Users.Login)

	// Expense routes
	private("POST /api/expenses/addExpense", h.Expenses.CreateExpense)
	private("POST /api/expenses", h.Expenses.CreateExpense)
	private("GET /api/expenses", h.Expenses.ListExpenses)
	private("GET /api/expenses/analytics", h.Expenses.Analytics)
	private("GET /api/expenses/{id}", h.Expenses.GetExpense)
	private("PATCH /api/expenses/update-status/{id}", h.Expenses.UpdateStatus)
	if h.Reports != nil {
		private("GET /api/expenses/report", h.Reports.ExpenseReport)
	}

	// Preflight for every path
	mux.Handle("OPTIONS /", withCORS(http.NotFoundHandler()))

	return mux
}
